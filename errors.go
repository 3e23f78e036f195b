package lens

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or configuration failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSessionClosed indicates an operation on a closed stream session.
	ErrSessionClosed = errors.New("session closed")

	// ErrRetriesExhausted indicates a stream gave up after exhausting its
	// configured reconnect attempts.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrStreamFailed indicates a stream ended with an in-band error
	// payload from the backend.
	ErrStreamFailed = errors.New("stream failed")
)
