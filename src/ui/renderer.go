package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Protocol-Lattice/vibe-code/src/project"
)

const Logo = `
██╗   ██╗██╗██████╗ ███████╗
██║   ██║██║██╔══██╗██╔════╝
██║   ██║██║██████╔╝█████╗
╚██╗ ██╔╝██║██╔══██╗██╔══╝
 ╚████╔╝ ██║██████╔╝███████╗
  ╚═══╝  ╚═╝╚═════╝ ╚══════╝
   C O D E  ·  A S K ,  W R I T E ,  P R E V I E W
`

// Render generates the full UI string based on the provided state.
func Render(s State, styles Styles) string {
	header := Header(styles)
	body := renderBody(s, styles)
	footer := renderFooter(s, styles)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Header is the logo block shown above every screen.
func Header(styles Styles) string {
	logoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AD8CFF")).Bold(true).
		Background(lipgloss.Color("#000000")).UnsetBackground()
	subtitle := styles.Header.Render("Protocol Lattice")
	styledLogo := logoStyle.Render(Logo)

	return lipgloss.JoinVertical(lipgloss.Left, styledLogo, subtitle)
}

func renderFooter(s State, styles Styles) string {
	var notice string
	if s.Notice != "" {
		if s.NoticeError {
			notice = styles.Error.Render("❌ "+s.Notice) + "\n"
		} else {
			notice = styles.Subtle.Render("ℹ️  "+s.Notice) + "\n"
		}
	}

	help := "ctrl+c: quit"
	switch s.Mode {
	case ModeDir:
		help += " | enter: select | t: starter template | ←/↑/↓/→: navigate"
	case ModeChat:
		help += " | enter: send | ctrl+f: files | ctrl+e: editor | ctrl+k: knowledge | ctrl+o: settings | ctrl+d: folder"
	case ModeFiles:
		help += " | enter: open | r: add to knowledge | esc: back"
	case ModeEditor:
		help += " | ctrl+s: save | esc: back"
	case ModeKnowledge:
		help += " | a: add active file | x: remove | c: clear all | esc: back"
	case ModeSettings:
		help += " | enter: change | r: reset prompt | esc: back"
	case ModeSystemPrompt:
		help += " | ctrl+s: save | esc: cancel"
	}
	return notice + styles.Footer.Render(help)
}

func renderBody(s State, styles Styles) string {
	switch s.Mode {
	case ModeDir:
		return renderDir(s, styles)
	case ModeChat:
		return renderChat(s, styles)
	case ModeFiles:
		return styles.List.Render(s.FileList.View())
	case ModeEditor:
		return renderEditor(s, styles)
	case ModeKnowledge:
		return renderKnowledge(s, styles)
	case ModeSettings:
		return styles.List.Render(s.SettingsList.View())
	case ModeSystemPrompt:
		return renderSystemPrompt(s, styles)
	default:
		return ""
	}
}

func renderDir(s State, styles Styles) string {
	pathHeader := styles.Subtitle.Render(fmt.Sprintf("Current: %s", s.WorkingDir))
	return lipgloss.JoinVertical(lipgloss.Left, pathHeader, s.DirList.View())
}

func renderChat(s State, styles Styles) string {
	statusItems := []string{
		styles.Status.Render(fmt.Sprintf("PROVIDER: %s", s.Provider)),
		styles.Status.Render(fmt.Sprintf("MODEL: %s", s.Model)),
		styles.Status.Render(fmt.Sprintf("KB: %d", s.KnowledgeCount)),
	}
	if s.PreviewURL != "" {
		statusItems = append(statusItems, styles.Status.Render(fmt.Sprintf("PREVIEW: %s (rev %d)", s.PreviewURL, s.Revision)))
	}
	statusItems = append(statusItems, styles.StatusRight.Render(fmt.Sprintf("PROJECT: %d files (%s)", s.FileCount, project.HumanSize(s.ProjectBytes))))
	status := lipgloss.JoinHorizontal(lipgloss.Top, statusItems...)

	active := s.ActiveFile
	if active == "" {
		active = "none"
	}
	chatView := lipgloss.JoinVertical(lipgloss.Left,
		styles.Subtitle.Render(fmt.Sprintf("Project: %s", s.WorkingDir)),
		styles.Subtle.Render(fmt.Sprintf("Active file: %s", active)),
		s.Viewport.View(),
		status,
		renderThinking(s, styles),
		s.TextArea.View(),
	)
	return styles.ChatContainer.Render(chatView)
}

func renderThinking(s State, styles Styles) string {
	if !s.IsThinking {
		return ""
	}
	return styles.Thinking.Render(fmt.Sprintf("Vibe %s %s", s.Spinner.View(), s.ThinkingText))
}

func renderEditor(s State, styles Styles) string {
	title := fmt.Sprintf("Editing %s", s.ActiveFile)
	if s.Dirty {
		title += " •"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ListHeader.Render(title),
		styles.Textarea.Render(s.Editor.View()),
	)
}

func renderKnowledge(s State, styles Styles) string {
	sub := "Reference documents are sent with every request."
	if s.ActiveFile != "" {
		sub += fmt.Sprintf(" Active file: %s", s.ActiveFile)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Subtle.Render(sub),
		styles.List.Render(s.KnowledgeList.View()),
	)
}

func renderSystemPrompt(s State, styles Styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ListHeader.Render("System Prompt"),
		styles.Subtle.Render("Instructions sent to the model with every request."),
		styles.Textarea.Render(s.Editor.View()),
	)
}
