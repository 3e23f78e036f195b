package lens

import "time"

// Live-event discriminator values carried in the event_type field.
// Unknown values are logged and ignored, never treated as errors.
const (
	LiveEventMetrics     = "metrics"
	LiveEventAdvice      = "advice"
	LiveEventStreamURL   = "stream_url"
	LiveEventStreamEnded = "stream_ended"
	LiveEventHeartbeat   = "heartbeat"
)

// LiveMetrics is a point-in-time snapshot of an in-progress live session.
type LiveMetrics struct {
	GMV           float64   `json:"gmv"`
	Viewers       int       `json:"viewers"`
	PeakViewers   int       `json:"peak_viewers"`
	Likes         int       `json:"likes"`
	Comments      int       `json:"comments"`
	ProductClicks int       `json:"product_clicks"`
	Timestamp     time.Time `json:"timestamp"`
}

// Advice is an advisory message generated for the host of a live session.
type Advice struct {
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}
