package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is one renderable entry in the dashboard feed: a prompt, a
// streamed answer, an advisory, or an analytics report. View takes the
// width instead of implementing tea.Model so the root model owns layout
// and blocks render deterministically in tests.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg asks the focused collapsible block to flip between its summary
// line and its full body.
type ToggleMsg struct{}
