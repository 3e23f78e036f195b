// Package bubbletea provides the Bubble Tea TUI for the lens dashboard:
// a chat panel backed by a streaming assistant, a live-session metrics
// panel with an advice feed, and a processing progress line.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/livelens/lens"
)

// ChatFunc streams one assistant answer. The onEvent callback receives a
// [lens.EventToken] for each answer token. The function blocks until the
// answer completes or the context is cancelled.
type ChatFunc func(ctx context.Context, req lens.ChatRequest, onEvent func(lens.Event)) error

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown — when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a chat-stream event for delivery to the Bubble Tea
// model.
type StreamEventMsg struct {
	Event lens.Event
}

// WatchEventMsg wraps a status or live event from the external watch channel.
type WatchEventMsg struct {
	Event lens.Event
}

// ChatDoneMsg signals that the in-flight chat answer has completed.
type ChatDoneMsg struct {
	Err error
}
