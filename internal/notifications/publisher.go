package notifications

import (
	"context"
	"encoding/json"
	"time"

	"vaultbox/internal/observability"
)

// Event is the frame written to the event stream.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// Publisher turns service events into stream frames. With Redis the frame
// goes through pub/sub so every instance's hub sees it; without Redis it is
// delivered to the local hub directly.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
	now      func() time.Time
}

// NewPublisher creates a Publisher. notifier may be nil.
func NewPublisher(hub *Hub, notifier *Notifier) *Publisher {
	return &Publisher{hub: hub, notifier: notifier, now: time.Now}
}

// PublishUser implements service.EventPublisher. Delivery is best effort.
func (p *Publisher) PublishUser(ctx context.Context, userID uint, eventType string, payload interface{}) {
	frame, err := json.Marshal(Event{Type: eventType, Payload: payload, CreatedAt: p.now().UTC()})
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "marshal event", "type", eventType, "error", err)
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishUser(ctx, userID, string(frame))
		if err == nil {
			return
		}
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		observability.GlobalLogger.WarnContext(ctx, "publish event, delivering locally",
			"type", eventType, "user_id", userID, "error", err)
	}
	if p.hub != nil {
		p.hub.Broadcast(userID, frame)
	}
}
