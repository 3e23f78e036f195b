package lens

// Event is a sealed interface representing a semantic dashboard event.
// Events are purely semantic. Transport/protocol errors come from the
// adapters' error callbacks, not from events. The unexported marker method
// prevents external implementations.
type Event interface {
	event()
}

// EventToken is an incremental chat answer token.
type EventToken struct {
	Text string
}

func (EventToken) event() {}

// EventStatus is a processing-status update for an uploaded video.
type EventStatus struct {
	Status ProcessingStatus
}

func (EventStatus) event() {}

// EventMetrics is a live-session metrics update.
type EventMetrics struct {
	Metrics LiveMetrics
}

func (EventMetrics) event() {}

// EventAnalytics carries the full analytics report of a processed video.
type EventAnalytics struct {
	Analytics VideoAnalytics
}

func (EventAnalytics) event() {}

// EventAdvice is an advisory message for an in-progress live session.
type EventAdvice struct {
	Advice Advice
}

func (EventAdvice) event() {}

// EventStreamURL announces the playback URL of a live session.
type EventStreamURL struct {
	URL string
}

func (EventStreamURL) event() {}

// EventStreamEnded signals that the live session has ended.
type EventStreamEnded struct{}

func (EventStreamEnded) event() {}

// Interface compliance checks.
var (
	_ Event = EventToken{}
	_ Event = EventStatus{}
	_ Event = EventMetrics{}
	_ Event = EventAnalytics{}
	_ Event = EventAdvice{}
	_ Event = EventStreamURL{}
	_ Event = EventStreamEnded{}
)
