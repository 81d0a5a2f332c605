// Package markdown renders markdown to ANSI-styled terminal output.
// Goldmark does the parsing, lipgloss the styling and word wrap.
package markdown

import "github.com/mstolarz/relay"

// Render parses source as markdown and returns styled terminal output
// wrapped to width. Code blocks keep their original line breaks.
func Render(source string, width int, theme relay.Theme) string {
	if source == "" {
		return ""
	}
	return newRenderer(theme).render([]byte(source), width)
}
