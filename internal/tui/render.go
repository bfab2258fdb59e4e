package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/adaptsim/internal/diff"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
)

var threadStatusIcons = map[model.ThreadStatus]string{
	model.ThreadOpen:      "○",
	model.ThreadAddressed: "◐",
	model.ThreadResolved:  "●",
	model.ThreadDismissed: "×",
}

// threadLabel is the one-line summary shown in the thread list.
func threadLabel(t review.Thread) string {
	icon := threadStatusIcons[t.Status]
	loc := "general"
	if t.Anchor != nil {
		loc = fmt.Sprintf("%s:%d", t.Anchor.File, t.Anchor.Line)
	}
	label := fmt.Sprintf("%s %-8s %s", icon, t.Severity, loc)
	if t.FollowUpRequested {
		label += " ↺"
	}
	return label
}

// styleThreadItem renders a thread list row.
func styleThreadItem(t review.Thread, width int, selected bool) string {
	label := truncate(threadLabel(t), width)
	switch {
	case selected:
		return threadItemSelectedStyle.Width(width).Render(label)
	case t.Status.Closed():
		return threadItemClosedStyle.Width(width).Render(label)
	default:
		return severityStyle(t.Severity).Width(width).Render(label)
	}
}

// renderSnippet renders an anchor's snippet with line numbers and syntax
// colors. The anchored line is marked.
func renderSnippet(hl *diff.Highlighter, a model.Anchor, width int) []string {
	if len(a.Snippet) == 0 {
		return nil
	}
	highlighted := hl.Anchor(a)
	start := a.Start
	if start == 0 {
		start = a.Line
	}

	out := make([]string, 0, len(highlighted))
	for i, line := range highlighted {
		num := start + i
		marker := " "
		if num == a.Line {
			marker = ">"
		}
		prefix := lineNumberStyle.Render(fmt.Sprintf("%4d", num)) + " " + marker + " "
		content := renderTokens(line, width-lipgloss.Width(prefix))
		if num == a.Line {
			content = anchorLineStyle.Render(content)
		}
		out = append(out, prefix+content)
	}
	return out
}

// renderTokens colors a highlighted line, falling back to plain text when
// it does not fit.
func renderTokens(line diff.Line, width int) string {
	text := strings.ReplaceAll(line.Plain(), "\t", "    ")
	if width > 0 && lipgloss.Width(text) > width {
		return truncate(text, width)
	}

	var b strings.Builder
	for _, tok := range line {
		t := strings.ReplaceAll(tok.Text, "\t", "    ")
		if tok.Color == "" {
			b.WriteString(t)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(t))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
