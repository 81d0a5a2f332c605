package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mstolarz/relay"
)

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// banner is the startup line: model in use and the loaded tool categories.
func banner(theme relay.Theme, model string, tools []relay.Tool) string {
	accent := lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true)
	muted := lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true)

	if model == "" {
		model = "default model"
	}
	var sb strings.Builder
	sb.WriteString(accent.Render("relay"))
	sb.WriteString(" ")
	sb.WriteString(muted.Render(model))
	sb.WriteString("\n")
	if len(tools) == 0 {
		sb.WriteString(muted.Render("No tools loaded"))
	} else {
		sb.WriteString(muted.Render(fmt.Sprintf("Tools loaded: %s", toolCategories(tools))))
	}
	return sb.String()
}

// toolCategories summarizes tool names by their prefix before the first
// underscore, so "read_wiki_structure, read_wiki_contents, ask_question"
// becomes "ask, read".
func toolCategories(tools []relay.Tool) string {
	seen := make(map[string]bool)
	var categories []string
	for _, t := range tools {
		category, _, _ := strings.Cut(t.Name, "_")
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return strings.Join(categories, ", ")
}

func promptLabel(theme relay.Theme) string {
	return lipgloss.NewStyle().Foreground(ansiColor(theme.UserMsg)).Bold(true).Render("You: ")
}

func errorLine(theme relay.Theme, err error) string {
	return lipgloss.NewStyle().Foreground(ansiColor(theme.Error)).Render("error: " + err.Error())
}

// printEvent shows tool activity as it happens. Text and thinking deltas are
// skipped; the rendered response follows once the turn is complete.
func printEvent(theme relay.Theme, evt relay.Event) {
	toolStyle := lipgloss.NewStyle().Foreground(ansiColor(theme.ToolCall))
	muted := lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true)
	errStyle := lipgloss.NewStyle().Foreground(ansiColor(theme.Error))

	switch evt := evt.(type) {
	case relay.EventToolCall:
		fmt.Println(toolStyle.Render(fmt.Sprintf("→ %s %s", evt.Call.Name, compact(string(evt.Call.Arguments), 80))))
	case relay.EventToolResult:
		style := muted
		if evt.IsError {
			style = errStyle
		}
		fmt.Println(style.Render("  " + compact(evt.Content, 120)))
	}
}

// compact flattens s to a single line and truncates it to max runes.
func compact(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
