package stream

import (
	"sync"
	"time"
)

// HeartbeatMonitor tracks the time since the last received payload.
// Heartbeat-only payloads refresh it like any other event. The monitor is
// an observation point: it never terminates a connection itself. Safe for
// concurrent use.
type HeartbeatMonitor struct {
	mu       sync.Mutex
	lastSeen time.Time
	now      func() time.Time
}

// NewHeartbeatMonitor creates a monitor with no events seen yet.
func NewHeartbeatMonitor() *HeartbeatMonitor {
	return &HeartbeatMonitor{now: time.Now}
}

// Touch records that a payload (or a successful connection open) was seen.
func (m *HeartbeatMonitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen = m.now()
}

// LastSeen returns the timestamp of the most recent payload, or the zero
// time if nothing has been seen.
func (m *HeartbeatMonitor) LastSeen() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

// Stale reports whether more than threshold has elapsed since the last
// payload. A monitor that has never been touched is not stale: staleness
// measures a connection that went quiet, not one that never opened.
func (m *HeartbeatMonitor) Stale(threshold time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSeen.IsZero() {
		return false
	}
	return m.now().Sub(m.lastSeen) > threshold
}
