package src

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/llm"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/ui"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

type countingPublisher struct {
	trees []project.Tree
}

func (p *countingPublisher) Publish(tree project.Tree) int {
	p.trees = append(p.trees, tree)
	return len(p.trees)
}

func newTestModel(t *testing.T, st workspace.State, replies ...llm.FakeReply) (*model, store.Store, *countingPublisher) {
	t.Helper()
	reg := llm.NewRegistry()
	reg.Register(workspace.ProviderGemini, llm.NewFakeClient(replies...))
	orch := cycle.New(reg, cycle.WithLogger(zerolog.Nop()))

	mem := store.NewMemoryStore()
	pub := &countingPublisher{}
	m := NewModel(context.Background(), Options{
		Orchestrator: orch,
		Store:        mem,
		Publisher:    pub,
		PreviewURL:   "http://127.0.0.1:8787",
		StartDir:     t.TempDir(),
	}, st)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return m, mem, pub
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// drain runs cmd and feeds every cycle or ingest result back into the model.
func drain(m *model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case cycleMsg, ingestMsg:
		m.Update(msg)
	}
}

func TestNewModelStartsInFolderPickerWithoutFiles(t *testing.T) {
	m, _, pub := newTestModel(t, workspace.DefaultState())

	if m.mode != ui.ModeDir {
		t.Fatalf("expected folder picker, got %v", m.mode)
	}
	if len(pub.trees) != 0 {
		t.Fatalf("nothing should be published for an empty workspace")
	}
}

func TestNewModelPublishesExistingTree(t *testing.T) {
	m, _, pub := newTestModel(t, workspace.DefaultState().LoadTemplate())

	if m.mode != ui.ModeChat {
		t.Fatalf("expected chat mode, got %v", m.mode)
	}
	if len(pub.trees) != 1 || m.revision != 1 {
		t.Fatalf("expected the loaded tree to be published once, got %d (rev %d)", len(pub.trees), m.revision)
	}
}

func TestTemplateKeyLoadsAndPersists(t *testing.T) {
	m, mem, pub := newTestModel(t, workspace.DefaultState())

	m.Update(keyRunes("t"))

	if m.mode != ui.ModeChat {
		t.Fatalf("expected chat mode after loading the template, got %v", m.mode)
	}
	if m.state.ActiveFile != "index.html" {
		t.Errorf("expected index.html to be active, got %q", m.state.ActiveFile)
	}
	if len(pub.trees) != 1 {
		t.Errorf("expected the template to be published")
	}
	saved, err := store.LoadState(context.Background(), mem)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if project.Find(saved.Tree, "index.html") == nil {
		t.Errorf("expected the template to be persisted")
	}
}

func TestSendRunsCycle(t *testing.T) {
	m, mem, pub := newTestModel(t, workspace.DefaultState().LoadTemplate(),
		llm.FakeReply{Text: `<file path="about.html"><h1>About</h1></file><chat>Added an about page</chat>`})

	m.textarea.SetValue("add an about page")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.isThinking {
		t.Fatalf("expected the model to be thinking while the cycle runs")
	}
	drain(m, cmd)

	if m.isThinking {
		t.Errorf("expected thinking to stop after the cycle")
	}
	if n := project.Find(m.state.Tree, "about.html"); n == nil || n.Content != "<h1>About</h1>" {
		t.Fatalf("expected about.html to be written, got %+v", n)
	}
	if got := len(m.state.History); got != 2 {
		t.Errorf("expected user and model turns, got %d", got)
	}
	if !strings.Contains(m.activity, "Created about.html") {
		t.Errorf("expected the write to be reported, got %q", m.activity)
	}
	if len(pub.trees) != 2 || m.revision != 2 {
		t.Errorf("expected a second preview revision, got %d", m.revision)
	}

	saved, _ := store.LoadState(context.Background(), mem)
	if project.Find(saved.Tree, "about.html") == nil {
		t.Errorf("expected the new file to be persisted")
	}
}

func TestSendFailureKeepsTree(t *testing.T) {
	m, _, pub := newTestModel(t, workspace.DefaultState().LoadTemplate(),
		llm.FakeReply{Err: context.DeadlineExceeded})
	before := m.state.Tree

	m.textarea.SetValue("hello")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(m, cmd)

	if !m.noticeErr {
		t.Errorf("expected an error notice")
	}
	if len(pub.trees) != 1 {
		t.Errorf("a failed cycle must not publish")
	}
	if len(m.state.Tree) != len(before) {
		t.Errorf("tree changed after a failed cycle")
	}
	last := m.state.History[len(m.state.History)-1]
	if !strings.HasPrefix(last.Text, "Error:") {
		t.Errorf("expected an error turn, got %q", last.Text)
	}
}

func TestBlankMessageIsNotSent(t *testing.T) {
	m, _, _ := newTestModel(t, workspace.DefaultState().LoadTemplate())

	m.textarea.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil || m.isThinking {
		t.Errorf("blank input should not start a cycle")
	}
}

func TestEditsAreBlockedWhileThinking(t *testing.T) {
	m, _, _ := newTestModel(t, workspace.DefaultState())
	m.isThinking = true

	m.Update(keyRunes("t"))

	if len(m.state.Tree) != 0 {
		t.Errorf("template must not load while a request is running")
	}
	if !m.noticeErr {
		t.Errorf("expected a notice explaining the wait")
	}
}

func TestEditorSavesActiveFile(t *testing.T) {
	m, _, pub := newTestModel(t, workspace.DefaultState().LoadTemplate())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if m.mode != ui.ModeEditor {
		t.Fatalf("expected editor mode, got %v", m.mode)
	}
	m.editor.SetValue("<p>edited</p>")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	if got := m.state.Active().Content; got != "<p>edited</p>" {
		t.Errorf("expected saved content, got %q", got)
	}
	if len(pub.trees) != 2 {
		t.Errorf("expected the edit to be published")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != ui.ModeChat {
		t.Errorf("esc should return to chat, got %v", m.mode)
	}
}

func TestKnowledgeKeys(t *testing.T) {
	m, _, _ := newTestModel(t, workspace.DefaultState().LoadTemplate())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlK})
	m.Update(keyRunes("a"))
	if len(m.state.Knowledge) != 1 || m.state.Knowledge[0].ID != "index.html" {
		t.Fatalf("expected index.html in the knowledge base, got %+v", m.state.Knowledge)
	}

	m.Update(keyRunes("a"))
	if len(m.state.Knowledge) != 1 {
		t.Errorf("adding the same file twice should be a no-op")
	}

	m.Update(keyRunes("c"))
	if len(m.state.Knowledge) != 0 {
		t.Errorf("expected the knowledge base to be cleared")
	}
}

func TestSettingsCycleModel(t *testing.T) {
	m, _, _ := newTestModel(t, workspace.DefaultState().LoadTemplate())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m.settingslist.Select(1)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.state.Settings.Model != workspace.ModelPro {
		t.Errorf("expected the model to advance, got %q", m.state.Settings.Model)
	}
}

func TestNextOf(t *testing.T) {
	opts := []string{"a", "b", "c"}
	cases := map[string]string{"a": "b", "c": "a", "zzz": "a"}
	for in, want := range cases {
		if got := nextOf(opts, in); got != want {
			t.Errorf("nextOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestViewRendersChat(t *testing.T) {
	m, _, _ := newTestModel(t, workspace.DefaultState().LoadTemplate())

	out := m.View()
	for _, want := range []string{"Active file: index.html", "PREVIEW: http://127.0.0.1:8787 (rev 1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}
