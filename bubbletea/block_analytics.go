package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/livelens/lens"
)

var _ MessageBlock = (*AnalyticsBlock)(nil)

// AnalyticsBlock renders the analytics report of a processed video. The
// summary line is always visible; the product exposure timeline collapses
// behind Tab.
type AnalyticsBlock struct {
	analytics lens.VideoAnalytics
	styles    Styles
	collapsed bool
}

// NewAnalyticsBlock creates an AnalyticsBlock, expanded by default.
func NewAnalyticsBlock(a lens.VideoAnalytics, styles Styles) *AnalyticsBlock {
	return &AnalyticsBlock{analytics: a, styles: styles}
}

func (b *AnalyticsBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *AnalyticsBlock) View(width int) string {
	marker := "▾"
	if b.collapsed {
		marker = "▸"
	}
	summary := fmt.Sprintf("%s Analytics  GMV %.2f  orders %d  peak %d  avg %.1f",
		marker, b.analytics.GMV, b.analytics.TotalOrders,
		b.analytics.PeakViewers, b.analytics.AvgViewers)
	title := b.styles.Metric.Render(summary)

	if b.collapsed || len(b.analytics.Exposures) == 0 {
		return lipgloss.NewStyle().Width(width).Render(title)
	}

	var rows strings.Builder
	for _, e := range b.analytics.Exposures {
		rows.WriteString(fmt.Sprintf("  %s–%s  %-20s clicks %-5d GMV %.2f\n",
			clock(e.StartSec), clock(e.EndSec), e.Name, e.Clicks, e.GMV))
	}
	return title + "\n" + b.styles.Muted.Render(strings.TrimRight(rows.String(), "\n"))
}

// clock formats seconds as mm:ss for the exposure timeline.
func clock(sec float64) string {
	s := int(sec)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
