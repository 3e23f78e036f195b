package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livelens/lens"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the lens dashboard.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation area. Exported for test access.
	Viewport viewport.Model

	chat    ChatFunc
	session *lens.ChatSession
	events  <-chan lens.Event // status/live watch events, may be nil
	theme   lens.Theme
	styles  Styles

	spinner  spinner.Model
	progress progress.Model

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	// answer is the assistant block receiving tokens for the in-flight turn.
	answer *AssistantTextBlock

	// Live-session state shown on the live line.
	metrics   *lens.LiveMetrics
	streamURL string
	liveEnded bool

	// status is the latest processing update, shown on the status line.
	status *lens.ProcessingStatus

	running bool
	cancel  context.CancelFunc
	chatCh  chan lens.Event
	doneCh  chan error
	err     error
	ready   bool
}

// New creates a dashboard Model. events carries status and live watch events
// into the UI; pass nil when nothing is being watched.
func New(chat ChatFunc, session *lens.ChatSession, events <-chan lens.Event, theme lens.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about this video..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		Input:      ti,
		chat:       chat,
		session:    session,
		events:     events,
		theme:      theme,
		styles:     NewStyles(theme),
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient()),
		blockFocus: -1,
	}
}

// Running returns whether a chat answer is currently streaming.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, listenForWatchEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.chatCh != nil {
			return m, listenForChatEvent(m.chatCh, m.doneCh)
		}
		return m, nil

	case WatchEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, listenForWatchEvent(m.events)

	case ChatDoneMsg:
		m = m.finishChat(msg.Err)
		cmd := m.Input.Focus()
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.liveLine())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Fixed rows below the viewport: live line, status line, input.
	vpHeight := msg.Height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	m.progress.Width = msg.Width / 3
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, pass keys to both input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	userMsg := lens.UserMessage{Text: text, Timestamp: time.Now()}
	m.session.Messages = append(m.session.Messages, userMsg)
	m.session.UpdatedAt = userMsg.Timestamp

	m.blocks = append(m.blocks, NewUserMessageBlock(userMsg, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.answer = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.chatCh = make(chan lens.Event, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	req := lens.ChatRequest{Messages: append([]lens.Message(nil), m.session.Messages...)}
	return m, tea.Batch(
		startChat(m.chat, ctx, req, m.chatCh, m.doneCh),
		listenForChatEvent(m.chatCh, m.doneCh),
	)
}

// finishChat commits the streamed answer to the session and resets chat state.
func (m Model) finishChat(err error) Model {
	m.running = false
	m.cancel = nil
	m.chatCh = nil
	m.doneCh = nil

	if m.answer != nil && m.answer.Text() != "" {
		now := time.Now()
		m.session.Messages = append(m.session.Messages, lens.AssistantMessage{
			Text:      m.answer.Text(),
			Timestamp: now,
		})
		m.session.UpdatedAt = now
	}
	m.answer = nil

	if err != nil && !errors.Is(err, context.Canceled) {
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
	}
	return m.updateBlockFocus()
}

// renderSession creates blocks from existing session messages.
func (m Model) renderSession() Model {
	for _, msg := range m.session.Messages {
		switch msg := msg.(type) {
		case lens.UserMessage:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg, m.styles))
		case lens.AssistantMessage:
			block := NewAssistantTextBlock(m.theme)
			block.Append(msg.Text)
			m.blocks = append(m.blocks, block)
		}
	}
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// processEvent routes a dashboard event to the right piece of state.
func (m Model) processEvent(evt lens.Event) Model {
	switch e := evt.(type) {
	case lens.EventToken:
		if m.answer == nil {
			m.answer = NewAssistantTextBlock(m.theme)
			m.blocks = append(m.blocks, m.answer)
		}
		m.answer.Append(e.Text)
	case lens.EventStatus:
		status := e.Status
		m.status = &status
	case lens.EventMetrics:
		metrics := e.Metrics
		m.metrics = &metrics
	case lens.EventAnalytics:
		m.blocks = append(m.blocks, NewAnalyticsBlock(e.Analytics, m.styles))
		m = m.updateBlockFocus()
	case lens.EventAdvice:
		m.blocks = append(m.blocks, NewAdviceBlock(e.Advice, m.styles))
		m = m.updateBlockFocus()
	case lens.EventStreamURL:
		m.streamURL = e.URL
	case lens.EventStreamEnded:
		m.liveEnded = true
	}
	return m
}

// updateBlockFocus scans backwards to find the last collapsible block.
// Only the focused block responds to Tab. ShiftTab cycles to the previous
// collapsible block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if collapsible(m.blocks[i]) {
			m.blockFocus = i
			return m
		}
	}
	return m
}

func collapsible(b MessageBlock) bool {
	switch b.(type) {
	case *AdviceBlock, *AnalyticsBlock:
		return true
	}
	return false
}

// cycleFocusPrev moves blockFocus to the previous collapsible block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if collapsible(m.blocks[idx]) {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

// liveLine summarizes the live session: latest metrics, playback URL, and
// the ended marker.
func (m Model) liveLine() string {
	switch {
	case m.liveEnded:
		return m.styles.Muted.Render("LIVE ENDED")
	case m.metrics != nil:
		s := fmt.Sprintf("%s  GMV %s  viewers %s (peak %s)  likes %s  comments %s  clicks %s",
			m.styles.Accent.Render("LIVE"),
			m.styles.Metric.Render(fmt.Sprintf("%.2f", m.metrics.GMV)),
			m.styles.Metric.Render(fmt.Sprintf("%d", m.metrics.Viewers)),
			m.styles.Metric.Render(fmt.Sprintf("%d", m.metrics.PeakViewers)),
			m.styles.Metric.Render(fmt.Sprintf("%d", m.metrics.Likes)),
			m.styles.Metric.Render(fmt.Sprintf("%d", m.metrics.Comments)),
			m.styles.Metric.Render(fmt.Sprintf("%d", m.metrics.ProductClicks)),
		)
		if m.streamURL != "" {
			s += "  " + m.styles.Muted.Render(m.streamURL)
		}
		return s
	case m.streamURL != "":
		return m.styles.Muted.Render("LIVE  " + m.streamURL)
	default:
		return ""
	}
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		return m.spinner.View() + " " + m.styles.Muted.Render("Thinking...")
	}
	if m.status != nil {
		switch {
		case m.status.Failed():
			return m.styles.Error.Render("Processing failed: " + m.status.Error)
		case m.status.Terminal():
			return m.styles.Success.Render("Processing complete")
		default:
			line := m.spinner.View() + " " + m.progress.ViewAs(progressFraction(m.status.Progress))
			if m.status.Message != "" {
				line += " " + m.styles.Muted.Render(m.status.Message)
			}
			if m.status.PollCount > 0 {
				line += " " + m.styles.Muted.Render(fmt.Sprintf("(poll %d)", m.status.PollCount))
			}
			return line
		}
	}
	return m.styles.Muted.Render("Enter to send, Tab to expand advice, Ctrl+C to quit")
}

// progressFraction maps wire progress to the 0..1 range the progress bar
// expects. Backends report percentages (10, 50, 100); fractional values
// pass through unchanged.
func progressFraction(p float64) float64 {
	if p > 1 {
		return p / 100
	}
	return p
}

// startChat streams one answer in a goroutine and signals completion.
func startChat(chat ChatFunc, ctx context.Context, req lens.ChatRequest, eventCh chan<- lens.Event, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := chat(ctx, req, func(e lens.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- err
		return nil
	}
}

// listenForChatEvent waits for the next chat event. When the channel closes,
// it reads the terminal error from doneCh and returns ChatDoneMsg.
func listenForChatEvent(ch <-chan lens.Event, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			err := <-doneCh
			return ChatDoneMsg{Err: err}
		}
		return StreamEventMsg{Event: evt}
	}
}

// listenForWatchEvent waits for the next status/live event. A closed or nil
// channel ends the listen loop silently.
func listenForWatchEvent(ch <-chan lens.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return WatchEventMsg{Event: evt}
	}
}
