package src

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/preview"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/ui"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case cycleMsg:
		return m.finishCycle(msg), nil

	case ingestMsg:
		return m.finishIngest(msg), nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	switch m.mode {
	case ui.ModeDir:
		m.dirlist, cmd = m.dirlist.Update(msg)
	case ui.ModeFiles:
		m.filelist, cmd = m.filelist.Update(msg)
	case ui.ModeKnowledge:
		m.kblist, cmd = m.kblist.Update(msg)
	case ui.ModeSettings:
		m.settingslist, cmd = m.settingslist.Update(msg)
	case ui.ModeEditor, ui.ModeSystemPrompt:
		m.editor, cmd = m.editor.Update(msg)
		if m.mode == ui.ModeEditor {
			if n := m.state.Active(); n != nil {
				m.dirty = m.editor.Value() != n.Content
			}
		}
	case ui.ModeChat:
		var textareaCmd, viewportCmd tea.Cmd
		m.textarea, textareaCmd = m.textarea.Update(msg)
		m.viewport, viewportCmd = m.viewport.Update(msg)
		cmd = tea.Batch(textareaCmd, viewportCmd)
	}

	if m.isThinking {
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmd = tea.Batch(cmd, spinnerCmd)
	}
	return m, cmd
}

func (m *model) resize(w, h int) {
	headerHeight := lipgloss.Height(ui.Header(m.style))
	containerV := m.style.ChatContainer.GetVerticalFrameSize()
	containerH := m.style.ChatContainer.GetHorizontalFrameSize()
	m.width, m.height = w, h

	listH := h - headerHeight - 4
	m.dirlist.SetSize(w, listH)
	m.filelist.SetSize(w-2, listH)
	m.kblist.SetSize(w-2, listH-1)
	m.settingslist.SetSize(w-2, listH)

	m.textarea.SetWidth(w - containerH)
	m.editor.SetWidth(w - 2)
	m.editor.SetHeight(max(3, h-headerHeight-6))
	m.viewport.Width = w - containerH
	// Two meta lines above the viewport, status and spinner lines below it.
	m.viewport.Height = max(3, h-headerHeight-m.textarea.Height()-containerV-6)
	m.renderOutput()
}

// handleKey deals with the keys the application owns. Anything it does not
// handle goes to the focused component.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit, true
	}

	// The editors keep every other key for themselves.
	switch m.mode {
	case ui.ModeEditor:
		switch key {
		case "ctrl+s":
			m.saveEditor()
			return m, nil, true
		case "esc":
			if m.dirty {
				m.setNotice("Discarded unsaved changes", false)
			}
			m.dirty = false
			m.toChat()
			return m, nil, true
		}
		return m, nil, false
	case ui.ModeSystemPrompt:
		switch key {
		case "ctrl+s":
			if !m.guardIdle() {
				return m, nil, true
			}
			s := m.state.Settings
			s.SystemPrompt = m.editor.Value()
			m.commit(m.state.WithSettings(s), false)
			m.setNotice("System prompt saved", false)
			m.mode = ui.ModeSettings
			return m, nil, true
		case "esc":
			m.mode = ui.ModeSettings
			return m, nil, true
		}
		return m, nil, false
	}

	if m.mode != ui.ModeDir {
		switch key {
		case "ctrl+d":
			if m.guardIdle() {
				m.mode = ui.ModeDir
			}
			return m, nil, true
		case "ctrl+f":
			m.mode = ui.ModeFiles
			return m, nil, true
		case "ctrl+e":
			m.openEditor()
			return m, nil, true
		case "ctrl+k":
			m.mode = ui.ModeKnowledge
			return m, nil, true
		case "ctrl+o":
			m.mode = ui.ModeSettings
			return m, nil, true
		case "esc":
			m.toChat()
			return m, nil, true
		}
	}

	switch m.mode {
	case ui.ModeDir:
		return m.handleDirKey(key)
	case ui.ModeChat:
		if key == "enter" {
			next, cmd := m.send()
			return next, cmd, true
		}
	case ui.ModeFiles:
		return m.handleFilesKey(key)
	case ui.ModeKnowledge:
		return m.handleKnowledgeKey(key)
	case ui.ModeSettings:
		return m.handleSettingsKey(key)
	}
	return m, nil, false
}

func (m *model) toChat() {
	m.mode = ui.ModeChat
	m.textarea.Focus()
	m.editor.Blur()
}

// guardIdle reports whether the workspace may be changed now. While a cycle
// is running its result would overwrite the change.
func (m *model) guardIdle() bool {
	if m.isThinking || (m.opts.Orchestrator != nil && m.opts.Orchestrator.Busy()) {
		m.setNotice("Wait for the current request to finish", true)
		return false
	}
	return true
}

func (m *model) handleDirKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "t":
		if !m.guardIdle() {
			return m, nil, true
		}
		m.commit(m.state.LoadTemplate(), true)
		m.activity = ""
		m.setNotice("Loaded the starter template", false)
		m.toChat()
		return m, nil, true

	case "esc":
		if len(m.state.Tree) > 0 {
			m.toChat()
		}
		return m, nil, true

	case "left":
		m.chdir(filepath.Dir(m.working))
		return m, nil, true

	case "enter":
		item, ok := m.dirlist.SelectedItem().(dirItem)
		if !ok {
			return m, nil, true
		}
		// --- Upload the current folder ---
		if strings.HasPrefix(item.name, useDirPrefix) {
			if !m.guardIdle() {
				return m, nil, true
			}
			m.isThinking = true
			m.thinking = "reading " + filepath.Base(item.path)
			dir := item.path
			cmd := func() tea.Msg {
				tree, err := project.IngestDir(m.ctx, dir)
				return ingestMsg{dir: dir, tree: tree, err: err}
			}
			return m, tea.Batch(cmd, m.spinner.Tick), true
		}
		// --- Go up or enter a subfolder ---
		if info, err := os.Stat(item.path); err == nil && info.IsDir() {
			m.chdir(item.path)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *model) chdir(dir string) {
	if dir == m.working {
		return
	}
	m.working = dir
	m.dirlist.SetItems(loadDirs(dir))
	m.dirlist.Select(0)
}

func (m *model) finishIngest(msg ingestMsg) *model {
	m.isThinking = false
	m.thinking = ""
	if msg.err != nil && !errors.Is(msg.err, project.ErrUploadTooLarge) {
		m.setNotice(fmt.Sprintf("Upload failed: %v", msg.err), true)
		return m
	}

	next := m.state.ReplaceTree(msg.tree)
	if s, ok := next.SelectFile(preview.EntryPath); ok {
		next = s
	}
	m.activity = ""
	m.commit(next, true)
	files, size := project.Count(msg.tree)
	if errors.Is(msg.err, project.ErrUploadTooLarge) {
		m.setNotice(project.UploadWarning, true)
	} else {
		m.setNotice(fmt.Sprintf("Uploaded %d files (%s) from %s", files, project.HumanSize(size), msg.dir), false)
	}
	m.working = msg.dir
	m.toChat()
	return m
}

// send starts a cycle for the textarea content. The cycle runs in a tea.Cmd
// and its resulting state comes back as a cycleMsg.
func (m *model) send() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.textarea.Value())
	if raw == "" || m.opts.Orchestrator == nil {
		return m, nil
	}
	if !m.guardIdle() {
		return m, nil
	}

	m.textarea.Reset()
	m.pending = raw
	m.activity = ""
	m.setNotice("", false)
	m.isThinking = true
	m.thinking = "waiting for " + m.state.Settings.Model
	m.renderOutput()

	st := m.state
	orch := m.opts.Orchestrator
	ctx := m.ctx
	cmd := func() tea.Msg {
		next, res := orch.Run(ctx, st, raw)
		return cycleMsg{state: next, res: res}
	}
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m *model) finishCycle(msg cycleMsg) *model {
	m.isThinking = false
	m.thinking = ""
	m.pending = ""

	switch msg.res.Status {
	case cycle.StatusBusy:
		m.setNotice("A request is already running", true)
		m.renderOutput()
		return m
	case cycle.StatusIgnored:
		m.renderOutput()
		return m
	case cycle.StatusFailed:
		m.setNotice(fmt.Sprintf("Request failed after %s", msg.res.Duration.Round(time.Millisecond)), true)
	default:
		m.setNotice(fmt.Sprintf("%d files written in %s", len(msg.res.Actions), msg.res.Duration.Round(time.Millisecond)), false)
	}

	m.activity = ui.RenderActions(msg.res.Actions, m.style)
	m.commit(msg.state, len(msg.res.Actions) > 0)
	if m.state.Active() == nil {
		if s, ok := m.state.SelectFile(preview.EntryPath); ok {
			m.commit(s, false)
		}
	}
	log.Debug().Str("cycle", msg.res.ID).Int("revision", m.revision).Msg("cycle applied")
	return m
}

func (m *model) openEditor() {
	n := m.state.Active()
	if n == nil {
		m.setNotice("No active file. Pick one with ctrl+f", true)
		return
	}
	m.editor.SetValue(n.Content)
	m.editor.Focus()
	m.textarea.Blur()
	m.dirty = false
	m.mode = ui.ModeEditor
}

func (m *model) saveEditor() {
	if !m.guardIdle() {
		return
	}
	if m.state.Active() == nil {
		m.setNotice("The active file no longer exists", true)
		return
	}
	m.commit(m.state.EditActive(m.editor.Value()), true)
	m.dirty = false
	m.setNotice("Saved "+m.state.ActiveFile, false)
}

func (m *model) handleFilesKey(key string) (tea.Model, tea.Cmd, bool) {
	item, ok := m.filelist.SelectedItem().(fileItem)
	switch key {
	case "enter":
		if !ok {
			return m, nil, true
		}
		if next, ok := m.state.SelectFile(item.path); ok {
			m.commit(next, false)
			m.openEditor()
		}
		return m, nil, true
	case "r":
		if ok {
			m.addReference(item.path)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *model) addReference(path string) {
	if !m.guardIdle() {
		return
	}
	next, added := m.state.AddReference(path, time.Now())
	if !added {
		m.setNotice(path+" is already in the knowledge base", false)
		return
	}
	m.commit(next, false)
	m.setNotice("Added "+path+" to the knowledge base", false)
}

func (m *model) handleKnowledgeKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "a":
		if m.state.ActiveFile == "" {
			m.setNotice("No active file to add", true)
		} else {
			m.addReference(m.state.ActiveFile)
		}
		return m, nil, true
	case "x":
		if item, ok := m.kblist.SelectedItem().(docItem); ok && m.guardIdle() {
			m.commit(m.state.RemoveReference(item.doc.ID), false)
			m.setNotice("Removed "+item.doc.Name, false)
		}
		return m, nil, true
	case "c":
		if m.guardIdle() {
			m.commit(m.state.ClearKnowledge(), false)
			m.setNotice("Knowledge base cleared", false)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *model) handleSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter":
		item, ok := m.settingslist.SelectedItem().(settingItem)
		if !ok || !m.guardIdle() {
			return m, nil, true
		}
		s := m.state.Settings
		switch item.key {
		case settingProvider:
			s.Provider = nextOf(workspace.Providers, s.Provider)
		case settingModel:
			s.Model = nextOf(workspace.Models, s.Model)
		case settingPrompt:
			m.editor.SetValue(s.SystemPrompt)
			m.editor.Focus()
			m.textarea.Blur()
			m.mode = ui.ModeSystemPrompt
			return m, nil, true
		}
		m.commit(m.state.WithSettings(s), false)
		return m, nil, true
	case "r":
		if m.guardIdle() {
			s := m.state.Settings
			s.SystemPrompt = workspace.DefaultSystemPrompt
			m.commit(m.state.WithSettings(s), false)
			m.setNotice("System prompt reset to the default", false)
		}
		return m, nil, true
	}
	return m, nil, false
}

// nextOf returns the option after current, wrapping around.
func nextOf(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
