// Package service holds the business logic behind the HTTP handlers.
package service

import "context"

// Event types pushed to a user's realtime stream.
const (
	EventReactionUpdated = "reaction_updated"
	EventCommentCreated  = "comment_created"
	EventFilesAttached   = "files_attached"
)

// EventPublisher delivers an event to one user's connected clients.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID uint, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) PublishUser(context.Context, uint, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
