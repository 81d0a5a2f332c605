package markdown_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mstolarz/relay"
	"github.com/mstolarz/relay/markdown"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func stripANSI(s string) string {
	re := regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	return re.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI color output so styled elements produce visible escape
	// codes we can assert against.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := relay.DefaultTheme()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", markdown.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello world", 80, theme)
		assert.Contains(t, stripANSI(result), "hello world")
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("one two three four five six seven eight", 20, theme)
		for _, line := range strings.Split(stripANSI(result), "\n") {
			assert.LessOrEqual(t, len(line), 20)
		}
	})

	t.Run("heading styled differently from paragraph", func(t *testing.T) {
		t.Parallel()
		heading := markdown.Render("# Title", 80, theme)
		paragraph := markdown.Render("Title", 80, theme)
		assert.Contains(t, stripANSI(heading), "Title")
		assert.NotEqual(t, heading, paragraph)
	})

	t.Run("bold and italic survive stripping", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("**bold** and *italic*", 80, theme))
		assert.Contains(t, result, "bold")
		assert.Contains(t, result, "italic")
	})

	t.Run("unordered list uses bullets", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("- first\n- second", 80, theme))
		assert.Contains(t, result, "• first")
		assert.Contains(t, result, "• second")
	})

	t.Run("ordered list keeps numbering", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("1. first\n2. second", 80, theme))
		assert.Contains(t, result, "1. first")
		assert.Contains(t, result, "2. second")
	})

	t.Run("nested list indents", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("- outer\n  - inner", 80, theme))
		assert.Contains(t, result, "• outer")
		assert.Contains(t, result, "  • inner")
	})

	t.Run("fenced code block keeps lines and gutter", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfunc main() {\n\tprintln(1)\n}\n```"
		result := stripANSI(markdown.Render(src, 80, theme))
		assert.Contains(t, result, "go")
		assert.Contains(t, result, "│ func main() {")
		assert.Contains(t, result, "│ }")
	})

	t.Run("code block lines are not reflowed", func(t *testing.T) {
		t.Parallel()
		src := "```\na very long line of code that would normally wrap at a narrow width setting\n```"
		result := stripANSI(markdown.Render(src, 20, theme))
		assert.Contains(t, result, "a very long line of code that would normally wrap at a narrow width setting")
	})

	t.Run("blockquote gets a gutter", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("> quoted text", 80, theme))
		assert.Contains(t, result, "┃ quoted text")
	})

	t.Run("link shows destination", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("[docs](https://example.com)", 80, theme))
		assert.Contains(t, result, "docs")
		assert.Contains(t, result, "(https://example.com)")
	})

	t.Run("thematic break renders a rule", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("---", 80, theme))
		assert.Contains(t, result, "─")
	})

	t.Run("html block passes through", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("<div>\nraw html\n</div>", 80, theme))
		assert.Contains(t, result, "<div>")
		assert.Contains(t, result, "raw html")
	})

	t.Run("inline html passes through", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("before <br> after", 80, theme))
		assert.Contains(t, result, "<br>")
	})

	t.Run("no trailing newline", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello", 80, theme)
		assert.False(t, strings.HasSuffix(result, "\n"))
	})
}
