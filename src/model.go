package src

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/ui"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// Publisher receives every tree the user or the assistant produces.
type Publisher interface {
	Publish(tree project.Tree) int
}

// Options wire the TUI to its collaborators. Publisher and PreviewURL are
// optional.
type Options struct {
	Orchestrator *cycle.Orchestrator
	Store        store.Store
	Publisher    Publisher
	PreviewURL   string
	StartDir     string
}

type dirItem struct {
	name string
	path string
}

func (d dirItem) Title() string       { return d.name }
func (d dirItem) Description() string { return d.path }
func (d dirItem) FilterValue() string { return d.name }

type fileItem struct {
	path   string
	size   int
	active bool
}

func (f fileItem) Title() string {
	if f.active {
		return "● " + f.path
	}
	return f.path
}
func (f fileItem) Description() string { return project.HumanSize(int64(f.size)) }
func (f fileItem) FilterValue() string { return f.path }

type docItem struct{ doc workspace.Document }

func (d docItem) Title() string { return d.doc.Name }
func (d docItem) Description() string {
	return fmt.Sprintf("%s · %s", d.doc.ID, project.HumanSize(int64(len(d.doc.Content))))
}
func (d docItem) FilterValue() string { return d.doc.Name }

type settingKey int

const (
	settingProvider settingKey = iota
	settingModel
	settingPrompt
)

type settingItem struct {
	key   settingKey
	label string
	value string
}

func (s settingItem) Title() string       { return s.label }
func (s settingItem) Description() string { return s.value }
func (s settingItem) FilterValue() string { return s.label }

// cycleMsg carries the outcome of one orchestrator run back to Update.
type cycleMsg struct {
	state workspace.State
	res   cycle.Result
}

type ingestMsg struct {
	dir  string
	tree project.Tree
	err  error
}

type model struct {
	ctx   context.Context
	opts  Options
	state workspace.State

	working  string
	mode     ui.Mode
	revision int

	dirlist      list.Model
	filelist     list.Model
	kblist       list.Model
	settingslist list.Model
	textarea     textarea.Model
	editor       textarea.Model
	viewport     viewport.Model
	spinner      spinner.Model
	style        ui.Styles

	isThinking bool
	thinking   string
	pending    string
	activity   string
	notice     string
	noticeErr  bool
	dirty      bool

	width  int
	height int
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}

// NewModel builds the TUI around an already loaded workspace. A workspace
// without files starts in the folder picker.
func NewModel(ctx context.Context, opts Options, st workspace.State) *model {
	st.Settings = st.Settings.Normalize()

	ta := textarea.New()
	ta.Placeholder = "Describe what to build or change..."
	ta.Focus()
	ta.SetHeight(3)

	ed := textarea.New()
	ed.ShowLineNumbers = true
	ed.CharLimit = 0

	styles := ui.NewStyles()

	vp := viewport.New(0, 0)

	s := spinner.New()
	s.Spinner = spinner.Line
	s.Style = styles.Thinking

	m := &model{
		ctx:          ctx,
		opts:         opts,
		state:        st,
		working:      opts.StartDir,
		mode:         ui.ModeChat,
		dirlist:      newList("Choose Project Folder", loadDirs(opts.StartDir)),
		filelist:     newList("Project Files", nil),
		kblist:       newList("Knowledge Base", nil),
		settingslist: newList("Settings", nil),
		textarea:     ta,
		editor:       ed,
		viewport:     vp,
		spinner:      s,
		style:        styles,
	}
	if len(st.Tree) == 0 {
		m.mode = ui.ModeDir
	} else if opts.Publisher != nil {
		m.revision = opts.Publisher.Publish(st.Tree)
	}
	m.refreshLists()
	m.renderOutput()
	return m
}

func (m *model) Init() tea.Cmd { return textarea.Blink }

// Run starts the full screen program and blocks until the user quits.
func Run(ctx context.Context, opts Options, st workspace.State) error {
	m := NewModel(ctx, opts, st)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *model) refreshLists() {
	files := project.Files(m.state.Tree)
	items := make([]list.Item, 0, len(files))
	for _, f := range files {
		items = append(items, fileItem{path: f.Path, size: len(f.Content), active: f.Path == m.state.ActiveFile})
	}
	m.filelist.SetItems(items)

	docs := make([]list.Item, 0, len(m.state.Knowledge))
	for _, d := range m.state.Knowledge {
		docs = append(docs, docItem{doc: d})
	}
	m.kblist.SetItems(docs)

	s := m.state.Settings
	prompt := s.SystemPrompt
	if prompt == workspace.DefaultSystemPrompt {
		prompt = "default"
	} else if r := []rune(prompt); len(r) > 60 {
		prompt = string(r[:60]) + "…"
	}
	m.settingslist.SetItems([]list.Item{
		settingItem{key: settingProvider, label: "Provider", value: s.Provider},
		settingItem{key: settingModel, label: "Model", value: s.Model},
		settingItem{key: settingPrompt, label: "System prompt", value: prompt},
	})
}

func (m *model) setNotice(msg string, isErr bool) {
	m.notice, m.noticeErr = msg, isErr
}

// commit installs next as the current workspace, persists it and, when
// publish is set, sends the tree to the preview.
func (m *model) commit(next workspace.State, publish bool) {
	m.state = next
	if m.opts.Store != nil {
		if err := store.SaveState(m.ctx, m.opts.Store, next); err != nil {
			m.setNotice(fmt.Sprintf("Failed to save workspace: %v", err), true)
		}
	}
	if publish && m.opts.Publisher != nil {
		m.revision = m.opts.Publisher.Publish(next.Tree)
	}
	m.refreshLists()
	m.renderOutput()
}

func (m *model) renderOutput() {
	content := ui.RenderTranscript(m.state.History, m.pending, m.style, m.viewport.Width)
	if m.activity != "" {
		content += "\n\n" + m.activity
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}
