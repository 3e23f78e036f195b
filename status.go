package lens

// Terminal processing status values. The backend reports ERROR through the
// same status channel as DONE: both end the stream normally, the failure is
// inside the payload rather than the transport.
const (
	StatusDone  = "DONE"
	StatusError = "ERROR"
)

// ProcessingStatus is one update from the video-processing pipeline.
// Updates are idempotent overwrites: after a reconnect the backend may
// repeat or regress a status and consumers must tolerate that.
type ProcessingStatus struct {
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	Message   string  `json:"message"`
	Heartbeat bool    `json:"heartbeat,omitempty"`
	PollCount int     `json:"poll_count,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Terminal reports whether this status ends the processing stream.
func (s ProcessingStatus) Terminal() bool {
	return s.Status == StatusDone || s.Status == StatusError
}

// Failed reports whether this is a terminal failure status.
func (s ProcessingStatus) Failed() bool {
	return s.Status == StatusError
}
