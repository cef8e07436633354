package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MediaUploadsTotal counts processed upload files by kind (image/video) and result.
	MediaUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultbox_media_uploads_total",
		Help: "Total number of uploaded media files by kind and result",
	}, []string{"kind", "result"})

	// MediaUploadBytes counts bytes written to the upload store.
	MediaUploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultbox_media_upload_bytes_total",
		Help: "Total bytes written to the upload store",
	})

	// ThumbnailDuration records thumbnail derivation latency by kind.
	ThumbnailDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultbox_thumbnail_duration_seconds",
		Help:    "Thumbnail derivation latency in seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	// ReactionsTotal counts reaction submissions by target and type.
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultbox_reactions_total",
		Help: "Total number of reaction submissions",
	}, []string{"target", "type"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultbox_db_query_duration_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultbox_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketConnections is the gauge of active event stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultbox_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts outbound event frames dropped per client.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultbox_websocket_dropped_messages_total",
		Help: "Total number of event frames dropped because a client could not keep up",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveThumbnail records how long a thumbnail took for the given kind.
func ObserveThumbnail(kind string, start time.Time) {
	ThumbnailDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
