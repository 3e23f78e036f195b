package stream

import "time"

// RetryPolicy bounds automatic reconnection after a non-user-initiated
// failure. The values are policy, not incidental: each call site carries
// its own tolerance for transport blips.
type RetryPolicy struct {
	// MaxAttempts is the number of reconnect attempts allowed after the
	// first failure. Zero disables reconnection entirely.
	MaxAttempts int
	// Delay is the fixed wait before each reconnect attempt.
	Delay time.Duration
}

// ShouldRetry reports whether another reconnect attempt is allowed after
// attempt failures since the last successfully parsed payload.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}
