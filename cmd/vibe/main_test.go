package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// isolate points HOME, the working directory and the store at temp dirs and
// returns the store directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Chdir(t.TempDir())

	dir := filepath.Join(home, "data")
	t.Setenv("VIBE_STORE_PATH", dir)
	return dir
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"vibe", "--log-level", "error"}, args...))
}

func loadState(t *testing.T, dir string) workspace.State {
	t.Helper()
	st, err := store.Open(store.BackendFile, dir)
	require.NoError(t, err)
	defer st.Close()
	state, err := store.LoadState(context.Background(), st)
	require.NoError(t, err)
	return state
}

func TestTemplateKnowledgeAndSettings(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, run(t, "template"))
	require.NoError(t, run(t, "knowledge", "add", "index.html"))
	require.NoError(t, run(t, "settings", "set", "--model", workspace.ModelPro))

	state := loadState(t, dir)
	assert.NotNil(t, project.Find(state.Tree, "index.html"))
	assert.Equal(t, "index.html", state.ActiveFile)
	require.Len(t, state.Knowledge, 1)
	assert.Equal(t, "index.html", state.Knowledge[0].ID)
	assert.Equal(t, workspace.ModelPro, state.Settings.Model)

	require.NoError(t, run(t, "knowledge", "clear"))
	assert.Empty(t, loadState(t, dir).Knowledge)
}

func TestKnowledgeAddUnknownFile(t *testing.T) {
	isolate(t)

	require.NoError(t, run(t, "template"))
	assert.Error(t, run(t, "knowledge", "add", "missing.js"))
}

func TestFirstRunUsesConfiguredProvider(t *testing.T) {
	dir := isolate(t)
	t.Setenv("VIBE_LLM_PROVIDER", workspace.ProviderFake)

	require.NoError(t, run(t, "tree"))

	assert.Equal(t, workspace.ProviderFake, loadState(t, dir).Settings.Provider)
}

func TestChatWithFakeProvider(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, run(t, "template"))
	require.NoError(t, run(t, "settings", "set", "--provider", workspace.ProviderFake))
	require.NoError(t, run(t, "chat", "--color=false", "say", "hello"))

	state := loadState(t, dir)
	assert.Equal(t, []workspace.Turn{
		{Role: workspace.RoleUser, Text: "say hello"},
		{Role: workspace.RoleModel, Text: "ok"},
	}, state.History)
}

func TestChatRequiresMessage(t *testing.T) {
	isolate(t)

	assert.Error(t, run(t, "chat"))
}

func TestUploadFolder(t *testing.T) {
	dir := isolate(t)
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<h1>hi</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "site.css"), []byte("h1{}"), 0o644))

	require.NoError(t, run(t, "upload", src))

	state := loadState(t, dir)
	assert.Equal(t, "index.html", state.ActiveFile)
	files, _ := project.Count(state.Tree)
	assert.Equal(t, 2, files)
	assert.NotNil(t, project.Find(state.Tree, "css/site.css"))
}

func TestPreviewToFile(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "preview.html")

	require.NoError(t, run(t, "template"))
	require.NoError(t, run(t, "preview", "--out", out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<style>")
	assert.NotContains(t, string(b), `<link rel="stylesheet" href="style.css">`)
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "vibe.toml")

	require.NoError(t, run(t, "config", "init", "--output", out))
	assert.FileExists(t, out)
	assert.Error(t, run(t, "config", "init", "--output", out))
}
