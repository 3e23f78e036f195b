package stream

import "time"

// SetNow overrides the monitor's clock. Test hook.
func (m *HeartbeatMonitor) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
