package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Protocol-Lattice/vibe-code/src/changes"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

const welcome = "Welcome to Vibe Code! Describe the app you want to build."

// RenderTranscript formats the conversation for the chat viewport. pending is
// a message that has been sent but whose cycle has not finished yet.
func RenderTranscript(history []workspace.Turn, pending string, styles Styles, width int) string {
	if len(history) == 0 && pending == "" {
		return styles.Subtle.Render(welcome)
	}
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	for _, t := range history {
		writeTurn(&b, t, styles, wrap)
	}
	if pending != "" {
		writeTurn(&b, workspace.Turn{Role: workspace.RoleUser, Text: pending}, styles, wrap)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeTurn(b *strings.Builder, t workspace.Turn, styles Styles, wrap lipgloss.Style) {
	switch {
	case t.Role == workspace.RoleUser:
		b.WriteString(styles.User.Render("You:") + "\n")
	case strings.HasPrefix(t.Text, "Error:"):
		b.WriteString(styles.Error.Render("Assistant:") + "\n")
	default:
		b.WriteString(styles.Assistant.Render("Assistant:") + "\n")
	}
	b.WriteString(wrap.Render(t.Text))
	b.WriteString("\n\n")
}

// RenderActions lists the files a cycle wrote, each followed by its diff.
func RenderActions(actions []changes.Action, styles Styles) string {
	var b strings.Builder
	for _, a := range actions {
		switch a.Kind {
		case changes.Created:
			b.WriteString(styles.Success.Render(fmt.Sprintf("💾 Created %s", a.Path)) + "\n")
		case changes.Updated:
			b.WriteString(styles.Success.Render(fmt.Sprintf("💾 Updated %s", a.Path)) + "\n")
		default:
			b.WriteString(styles.Subtle.Render(fmt.Sprintf("· %s unchanged", a.Path)) + "\n")
		}
		if d := strings.TrimRight(a.Diff, "\n"); d != "" {
			b.WriteString(RenderDiff(d, styles) + "\n")
		}
	}
	return b.String()
}

// RenderDiff colors an uncolored unified diff line by line.
func RenderDiff(diff string, styles Styles) string {
	lines := strings.Split(diff, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"), strings.HasPrefix(l, "diff "), strings.HasPrefix(l, "index "):
			lines[i] = styles.Subtle.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = styles.DiffHunk.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = styles.DiffAdd.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = styles.DiffDel.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
