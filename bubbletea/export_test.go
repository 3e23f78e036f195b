package bubbletea

// Test hooks into unexported model state.

// SetRunning puts the model in a running state.
func SetRunning(m Model) Model {
	m.running = true
	return m
}

// SetRunningWithCancel puts the model in a running state with a cancel function.
func SetRunningWithCancel(m Model, cancel func()) Model {
	m.running = true
	m.cancel = cancel
	return m
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// LiveLine exports liveLine for testing.
func LiveLine(m Model) string {
	return m.liveLine()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// BlockFocus exports blockFocus for testing.
func BlockFocus(m Model) int {
	return m.blockFocus
}

// WrapText exports wrapText for testing.
func WrapText(s string, width int) []string {
	return wrapText(s, width)
}
