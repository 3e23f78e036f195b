package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/livelens/lens"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders one user prompt: a "> " prefix, the question,
// and a muted clock so resumed sessions read as a timeline.
type UserMessageBlock struct {
	msg    lens.UserMessage
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(msg lens.UserMessage, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{msg: msg, styles: styles}
}

func (b *UserMessageBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UserMessageBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.msg.Text
	if !b.msg.Timestamp.IsZero() {
		content += b.styles.Muted.Render("  " + b.msg.Timestamp.Format("15:04"))
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
