package src

import (
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/ui"
)

func (m *model) View() string {
	return ui.Render(m.uiState(), m.style)
}

// uiState snapshots everything the renderer needs.
func (m *model) uiState() ui.State {
	files, size := project.Count(m.state.Tree)
	return ui.State{
		Mode:       m.mode,
		WorkingDir: m.working,

		Provider:       m.state.Settings.Provider,
		Model:          m.state.Settings.Model,
		ActiveFile:     m.state.ActiveFile,
		FileCount:      files,
		ProjectBytes:   size,
		KnowledgeCount: len(m.state.Knowledge),
		PreviewURL:     m.opts.PreviewURL,
		Revision:       m.revision,

		IsThinking:   m.isThinking,
		ThinkingText: m.thinking,
		Notice:       m.notice,
		NoticeError:  m.noticeErr,
		Dirty:        m.dirty,

		DirList:       m.dirlist,
		FileList:      m.filelist,
		KnowledgeList: m.kblist,
		SettingsList:  m.settingslist,
		TextArea:      m.textarea,
		Editor:        m.editor,
		Viewport:      m.viewport,
		Spinner:       m.spinner,
	}
}
