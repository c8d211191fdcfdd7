package src

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/llm"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

func headlessFixture(t *testing.T, replies ...llm.FakeReply) (*cycle.Orchestrator, store.Store) {
	t.Helper()
	reg := llm.NewRegistry()
	reg.Register(workspace.ProviderGemini, llm.NewFakeClient(replies...))
	mem := store.NewMemoryStore()
	if err := store.SaveState(context.Background(), mem, workspace.DefaultState().LoadTemplate()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return cycle.New(reg, cycle.WithLogger(zerolog.Nop())), mem
}

func TestRunHeadlessWritesAndPrints(t *testing.T) {
	orch, mem := headlessFixture(t, llm.FakeReply{Text: `<file path="index.html"><h1>New</h1></file><chat>Rewrote the page</chat>`})
	pub := &countingPublisher{}
	var out bytes.Buffer

	res, err := RunHeadless(context.Background(), orch, mem, pub, "rewrite the page", &out)
	if err != nil {
		t.Fatalf("RunHeadless returned error: %v", err)
	}
	if res.Revision != 1 {
		t.Errorf("expected revision 1, got %d", res.Revision)
	}

	got := out.String()
	for _, want := range []string{"💾 Updated index.html", "+<h1>New</h1>", "🤖 Rewrote the page", "Preview revision 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}

	saved, _ := store.LoadState(context.Background(), mem)
	if n := project.Find(saved.Tree, "index.html"); n == nil || n.Content != "<h1>New</h1>" {
		t.Errorf("expected the write to be persisted, got %+v", n)
	}
}

func TestRunHeadlessFailurePersistsErrorTurn(t *testing.T) {
	orch, mem := headlessFixture(t, llm.FakeReply{Err: errors.New("quota exceeded")})
	var out bytes.Buffer

	_, err := RunHeadless(context.Background(), orch, mem, nil, "hello", &out)
	if err == nil || err.Error() != "quota exceeded" {
		t.Fatalf("expected the service error, got %v", err)
	}
	if !strings.Contains(out.String(), "❌ quota exceeded") {
		t.Errorf("expected the error to be printed, got %q", out.String())
	}

	saved, _ := store.LoadState(context.Background(), mem)
	if len(saved.History) != 2 || saved.History[1].Text != "Error: quota exceeded" {
		t.Errorf("expected the error turn to be persisted, got %+v", saved.History)
	}
}

func TestRunHeadlessRejectsBlankMessage(t *testing.T) {
	orch, mem := headlessFixture(t)

	if _, err := RunHeadless(context.Background(), orch, mem, nil, "  ", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for a blank message")
	}
}
