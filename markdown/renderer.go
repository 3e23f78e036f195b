package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/livelens/lens"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	code      lipgloss.Style
	underline lipgloss.Style
}

func newStyles(theme lens.Theme) styles {
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		code:      lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// writer walks the goldmark AST and accumulates styled terminal output.
// Answers about sales numbers lean heavily on GFM tables, so the parser
// runs with the table and strikethrough extensions enabled.
type writer struct {
	src    []byte
	width  int
	styles styles
	out    strings.Builder
}

func render(source []byte, width int, theme lens.Theme) string {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &writer{src: source, width: width, styles: newStyles(theme)}
	w.blocks(doc)
	return strings.TrimRight(w.out.String(), "\n")
}

func (w *writer) blocks(node ast.Node) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c)
	}
}

// gap writes the blank line between sibling blocks.
func (w *writer) gap(node ast.Node) {
	if node.NextSibling() != nil {
		w.out.WriteString("\n")
	}
}

func (w *writer) block(node ast.Node) {
	switch n := node.(type) {
	case *ast.Paragraph:
		w.out.WriteString(lipgloss.NewStyle().Width(w.width).Render(w.inlines(n)))
		w.out.WriteString("\n")
		w.gap(n)

	case *ast.Heading:
		styled := w.styles.accent.Render(w.inlines(n))
		w.out.WriteString(lipgloss.NewStyle().Width(w.width).Render(styled))
		w.out.WriteString("\n")
		w.gap(n)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.src)); lang != "" {
			w.out.WriteString(w.styles.muted.Render(lang))
			w.out.WriteString("\n")
		}
		w.code(n.Lines())
		w.gap(n)

	case *ast.CodeBlock:
		w.code(n.Lines())
		w.gap(n)

	case *ast.List:
		w.list(n, 0)
		w.gap(n)

	case *ast.Blockquote:
		w.quote(n)
		w.gap(n)

	case *east.Table:
		w.table(n)
		w.gap(n)

	case *ast.ThematicBreak:
		w.out.WriteString("---\n")
		w.gap(n)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			w.out.Write(line.Value(w.src))
		}

	default:
		// Unrecognized blocks: recurse so no content is dropped.
		w.blocks(node)
	}
}

// code renders code lines behind a muted gutter, never reflowed.
func (w *writer) code(lines *text.Segments) {
	gutter := w.styles.muted.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content := strings.TrimRight(string(line.Value(w.src)), "\n")
		w.out.WriteString(gutter + w.styles.code.Render(content) + "\n")
	}
}

// quote renders a blockquote body behind a muted bar, narrowed to fit.
func (w *writer) quote(node *ast.Blockquote) {
	inner := &writer{src: w.src, width: max(w.width-2, 10), styles: w.styles}
	inner.blocks(node)
	bar := w.styles.muted.Render("┃ ")
	for _, line := range strings.Split(strings.TrimRight(inner.out.String(), "\n"), "\n") {
		w.out.WriteString(bar + line + "\n")
	}
}

// table renders a GFM table as padded columns: accented header, muted rule,
// plain body rows. Columns size to their widest cell; tables are not
// reflowed to width since truncating numbers misleads.
func (w *writer) table(node *east.Table) {
	var rows [][]string
	for r := node.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, w.inlines(c))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	widths := make([]int, 0)
	for _, cells := range rows {
		for i, cell := range cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	// First child of a table is its header row.
	for ri, cells := range rows {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		line := strings.TrimRight(strings.Join(padded, "  "), " ")
		if ri == 0 {
			w.out.WriteString(w.styles.accent.Render(line) + "\n")
			rule := make([]string, len(widths))
			for i, cw := range widths {
				rule[i] = strings.Repeat("─", cw)
			}
			w.out.WriteString(w.styles.muted.Render(strings.Join(rule, "  ")) + "\n")
			continue
		}
		w.out.WriteString(line + "\n")
	}
}

func (w *writer) list(node *ast.List, depth int) {
	ordered := node.IsOrdered()
	num := node.Start

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", depth)
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var pending strings.Builder
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				pending.WriteString(w.inlines(in))
			case *ast.List:
				if pending.Len() > 0 {
					w.item(indent, marker, pending.String())
					pending.Reset()
				}
				w.list(in, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				sub := &writer{src: w.src, width: w.width, styles: w.styles}
				sub.block(ic)
				pending.WriteString(sub.out.String())
			}
		}
		if pending.Len() > 0 {
			w.item(indent, marker, pending.String())
		}
	}
}

// item writes one list item with continuation lines aligned under the text.
func (w *writer) item(indent, marker, content string) {
	prefix := indent + marker
	itemWidth := max(w.width-len(prefix), 10)
	wrapped := lipgloss.NewStyle().Width(itemWidth).Render(content)
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			w.out.WriteString(prefix + line + "\n")
			continue
		}
		w.out.WriteString(continuation + line + "\n")
	}
}

// inlines collects the styled inline text of a node's children.
func (w *writer) inlines(node ast.Node) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.inline(c, &b)
	}
	return b.String()
}

func (w *writer) inline(node ast.Node, b *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		if n.SoftLineBreak() {
			b.WriteByte(' ')
		}
		if n.HardLineBreak() {
			b.WriteByte('\n')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.Emphasis:
		inner := w.inlines(n)
		if n.Level == 1 {
			b.WriteString(w.styles.italic.Render(inner))
			return
		}
		// Level 2 = bold. ***bold italic*** parses as nested Emphasis
		// nodes, so level 3+ is unreachable.
		b.WriteString(w.styles.bold.Render(inner))

	case *east.Strikethrough:
		b.WriteString(w.styles.strike.Render(w.inlines(n)))

	case *ast.CodeSpan:
		b.WriteString(w.styles.bold.Render(w.inlines(n)))

	case *ast.Link:
		b.WriteString(w.styles.underline.Render(w.inlines(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		b.WriteString(w.styles.underline.Render(string(n.URL(w.src))))

	case *ast.Image:
		b.WriteString(w.styles.underline.Render(w.inlines(n)))
		b.WriteString(" " + w.styles.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.inline(c, b)
		}
	}
}
