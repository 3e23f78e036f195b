package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/livelens/lens"
)

var _ MessageBlock = (*AdviceBlock)(nil)

// AdviceBlock renders one advisory message from a live session. The title
// line is always visible; the body collapses behind Tab, keeping the
// conversation scannable when advice arrives faster than it can be read.
type AdviceBlock struct {
	advice    lens.Advice
	styles    Styles
	collapsed bool
}

// NewAdviceBlock creates an AdviceBlock, collapsed by default.
func NewAdviceBlock(advice lens.Advice, styles Styles) *AdviceBlock {
	return &AdviceBlock{advice: advice, styles: styles, collapsed: true}
}

func (b *AdviceBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *AdviceBlock) View(width int) string {
	marker := "▸"
	if !b.collapsed {
		marker = "▾"
	}
	title := b.styles.Advice.Render(marker+" ! "+b.advice.Title) + " " +
		b.severityTag()

	if b.collapsed || b.advice.Body == "" {
		return lipgloss.NewStyle().Width(width).Render(title)
	}

	bodyWidth := width - 2
	if bodyWidth < 10 {
		bodyWidth = 10
	}
	var body strings.Builder
	for _, line := range wrapText(b.advice.Body, bodyWidth) {
		body.WriteString("  " + line + "\n")
	}
	return title + "\n" + strings.TrimRight(body.String(), "\n")
}

func (b *AdviceBlock) severityTag() string {
	switch b.advice.Severity {
	case "critical":
		return b.styles.Error.Render("[critical]")
	case "warn":
		return b.styles.Advice.Render("[warn]")
	default:
		return b.styles.Muted.Render("[info]")
	}
}
