package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
)

// Mode represents the current UI state
type Mode int

const (
	ModeDir Mode = iota
	ModeChat
	ModeFiles
	ModeEditor
	ModeKnowledge
	ModeSettings
	ModeSystemPrompt
)

func (m Mode) String() string {
	switch m {
	case ModeDir:
		return "folder"
	case ModeChat:
		return "chat"
	case ModeFiles:
		return "files"
	case ModeEditor:
		return "editor"
	case ModeKnowledge:
		return "knowledge"
	case ModeSettings, ModeSystemPrompt:
		return "settings"
	default:
		return "unknown"
	}
}

// State contains all the data required to render the UI.
// This decouples the renderer from the main application logic.
type State struct {
	Mode       Mode
	WorkingDir string

	Provider       string
	Model          string
	ActiveFile     string
	FileCount      int
	ProjectBytes   int64
	KnowledgeCount int
	PreviewURL     string
	Revision       int

	IsThinking   bool
	ThinkingText string
	// Notice is a one-line status shown above the footer.
	Notice      string
	NoticeError bool
	Dirty       bool

	// Bubble Tea models
	DirList       list.Model
	FileList      list.Model
	KnowledgeList list.Model
	SettingsList  list.Model
	TextArea      textarea.Model
	Editor        textarea.Model
	Viewport      viewport.Model
	Spinner       spinner.Model
}
