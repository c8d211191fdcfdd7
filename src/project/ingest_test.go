package project

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textUpload(path, body string) Upload {
	return Upload{
		RelPath: path,
		Size:    int64(len(body)),
		Open:    func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestIngestBuildsSortedTree(t *testing.T) {
	tree, err := Ingest(context.Background(), []Upload{
		textUpload("site/script.js", "js"),
		textUpload("site/index.html", "html"),
		textUpload("site/css/style.css", "css"),
	})
	require.NoError(t, err)

	require.Len(t, tree, 1)
	site := tree[0]
	assert.Equal(t, "site", site.Path)

	var names []string
	for _, c := range site.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"css", "index.html", "script.js"}, names)
	assert.Equal(t, "css", Find(tree, "site/css/style.css").Content)
}

func TestIngestStopsAtSizeCap(t *testing.T) {
	big := textUpload("a.txt", "a")
	big.Size = 15 * 1024 * 1024
	second := textUpload("b.txt", "b")
	second.Size = 6 * 1024 * 1024
	third := textUpload("c.txt", "c")

	tree, err := Ingest(context.Background(), []Upload{big, second, third})

	require.ErrorIs(t, err, ErrUploadTooLarge)
	require.Len(t, tree, 1)
	assert.Equal(t, "a.txt", tree[0].Path)
}

func TestIngestSkipsPathsThroughFiles(t *testing.T) {
	tree, err := Ingest(context.Background(), []Upload{
		textUpload("a", "plain file"),
		textUpload("a/b.txt", "nested"),
		textUpload("c.txt", "c"),
	})
	require.NoError(t, err)

	assert.Nil(t, Find(tree, "a/b.txt"))
	assert.NotNil(t, Find(tree, "c.txt"))
}

func TestIngestKeepsFirstUploadOfAPath(t *testing.T) {
	tree, err := Ingest(context.Background(), []Upload{
		textUpload("site/index.html", "first"),
		textUpload("site/index.html", "second"),
		textUpload("lib/util.js", "u"),
		textUpload("lib", "clashes with the directory"),
	})
	require.NoError(t, err)

	assert.Equal(t, "first", Find(tree, "site/index.html").Content)
	require.Len(t, tree, 2)
	lib := tree[0]
	assert.Equal(t, "lib", lib.Path)
	assert.True(t, lib.IsDir())
	files, _ := Count(tree)
	assert.Equal(t, 2, files)
}

func TestIngestReportsReadErrors(t *testing.T) {
	boom := errors.New("boom")
	tree, err := Ingest(context.Background(), []Upload{
		textUpload("ok.txt", "ok"),
		{RelPath: "bad.txt", Open: func() (io.ReadCloser, error) { return nil, boom }},
	})
	require.ErrorIs(t, err, boom)
	assert.NotNil(t, Find(tree, "ok.txt"))
}

func TestIngestHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree, err := Ingest(ctx, []Upload{textUpload("a.txt", "a")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tree)
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("index.html", "<html></html>")
	write("js/app.js", "app")
	write("node_modules/dep/index.js", "dep")
	write(".git/HEAD", "ref")

	tree, err := IngestDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, "app", Find(tree, "js/app.js").Content)
	assert.NotNil(t, Find(tree, "index.html"))
	assert.Nil(t, Find(tree, "node_modules"))
	assert.Nil(t, Find(tree, ".git"))
}
