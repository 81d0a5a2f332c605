package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mstolarz/relay"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type renderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme relay.Theme) *renderer {
	return &renderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte, width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.blocks(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *renderer) blocks(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, buf)
	}
}

func (r *renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		wrapped := lipgloss.NewStyle().Width(width).Render(r.inlines(n, source))
		buf.WriteString(wrapped)
		buf.WriteString("\n")
		r.blockGap(n, buf)

	case *ast.Heading:
		styled := r.heading.Render(r.inlines(n, source))
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(styled))
		buf.WriteString("\n")
		r.blockGap(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.codeLines(n.Lines(), source, buf)
		r.blockGap(n, buf)

	case *ast.CodeBlock:
		r.codeLines(n.Lines(), source, buf)
		r.blockGap(n, buf)

	case *ast.List:
		r.list(n, source, width, buf, 0)
		r.blockGap(n, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		innerWidth := width - 2
		if innerWidth < 10 {
			innerWidth = 10
		}
		r.blocks(n, source, innerWidth, &inner)
		gutter := r.muted.Render("┃") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(gutter + line + "\n")
		}
		r.blockGap(n, buf)

	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")
		r.blockGap(n, buf)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}

	default:
		r.blocks(node, source, width, buf)
	}
}

// blockGap writes the blank line separating top-level blocks.
func (r *renderer) blockGap(node ast.Node, buf *bytes.Buffer) {
	if node.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (r *renderer) codeLines(lines *text.Segments, source []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content := strings.TrimRight(string(line.Value(source)), "\n")
		buf.WriteString(gutter + content)
		buf.WriteString("\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := node.Start

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", depth)
		marker := "• "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var itemBuf bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				itemBuf.WriteString(r.inlines(in, source))
			case *ast.List:
				if itemBuf.Len() > 0 {
					r.listItem(buf, indent, marker, itemBuf.String(), width)
					itemBuf.Reset()
				}
				r.list(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				r.block(ic, source, width, &itemBuf)
			}
		}
		if itemBuf.Len() > 0 {
			r.listItem(buf, indent, marker, itemBuf.String(), width)
		}
	}
}

// listItem writes one item, indenting continuation lines under the marker.
func (r *renderer) listItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	itemWidth := width - len(prefix)
	if itemWidth < 10 {
		itemWidth = 10
	}
	wrapped := lipgloss.NewStyle().Width(itemWidth).Render(content)
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

func (r *renderer) inlines(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, source, &buf)
	}
	return buf.String()
}

func (r *renderer) inline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inlines(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inlines(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inlines(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inlines(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, source, buf)
		}
	}
}
