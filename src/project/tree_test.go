package project

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertIntoEmptyTree(t *testing.T) {
	got := Upsert(nil, "a/b/c.txt", "X")

	want := Tree{
		{Name: "a", Path: "a", Kind: KindDirectory, Children: []*Node{
			{Name: "b", Path: "a/b", Kind: KindDirectory, Children: []*Node{
				{Name: "c.txt", Path: "a/b/c.txt", Kind: KindFile, Content: "X"},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	base := Upsert(nil, "index.html", "<h1>hi</h1>")
	once := Upsert(base, "src/app.js", "1")
	twice := Upsert(once, "src/app.js", "1")

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second upsert changed the tree:\n%s", diff)
	}
}

func TestFindAfterUpsert(t *testing.T) {
	paths := []string{"index.html", "css/site.css", "js/lib/util.js", "deep/er/still/file.txt"}
	var tree Tree
	for _, p := range paths {
		tree = Upsert(tree, p, "content of "+p)
	}
	for _, p := range paths {
		n := Find(tree, p)
		require.NotNil(t, n, p)
		assert.Equal(t, "content of "+p, n.Content)
		assert.True(t, n.IsFile())
	}
	assert.Nil(t, Find(tree, "missing.txt"))
	assert.True(t, Find(tree, "js/lib").IsDir())
}

func TestUpsertOrdersDirectoriesFirst(t *testing.T) {
	var tree Tree
	for _, p := range []string{"zeta.txt", "alpha.txt", "src/main.js", "assets/logo.svg", "Beta.md"} {
		tree = Upsert(tree, p, "")
	}

	var names []string
	for _, n := range tree {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"assets", "src", "Beta.md", "alpha.txt", "zeta.txt"}, names)
}

func TestUpsertReplacesExistingFileInPlace(t *testing.T) {
	tree := Upsert(nil, "b.txt", "old")
	tree = Upsert(tree, "a.txt", "a")
	tree = Upsert(tree, "b.txt", "new")

	require.Len(t, tree, 2)
	assert.Equal(t, "a.txt", tree[0].Name)
	assert.Equal(t, "b.txt", tree[1].Name)
	assert.Equal(t, "new", tree[1].Content)
}

func TestUpsertSharesUntouchedNodes(t *testing.T) {
	before := Upsert(nil, "lib/a.js", "a")
	before = Upsert(before, "docs/readme.md", "r")
	docs := Find(before, "docs")

	after := Upsert(before, "lib/b.js", "b")

	assert.Nil(t, Find(before, "lib/b.js"), "input tree must not change")
	assert.Same(t, docs, Find(after, "docs"))
	assert.NotSame(t, Find(before, "lib"), Find(after, "lib"))
	assert.Same(t, Find(before, "lib/a.js"), Find(after, "lib/a.js"))
}

func TestUpsertIgnoresEmptySegments(t *testing.T) {
	tree := Upsert(nil, "/a//b.txt/", "x")
	n := Find(tree, "a/b.txt")
	require.NotNil(t, n)
	assert.Equal(t, "x", n.Content)

	assert.Equal(t, tree, Upsert(tree, "//", "ignored"))
}

func TestUpsertDoesNotDescendIntoFiles(t *testing.T) {
	tree := Upsert(nil, "a", "file")
	tree = Upsert(tree, "a/b.txt", "nested")

	require.Len(t, tree, 2)
	assert.True(t, tree[0].IsDir())
	assert.Equal(t, "a/b.txt", tree[0].Children[0].Path)
	assert.True(t, tree[1].IsFile())
}

func TestUpsertOntoDirectoryNameAddsFile(t *testing.T) {
	tree := Upsert(nil, "a/b.txt", "nested")
	tree = Upsert(tree, "a", "file")
	tree = Upsert(tree, "a", "again")

	require.Len(t, tree, 2)
	assert.True(t, tree[0].IsDir())
	assert.Equal(t, "a/b.txt", tree[0].Children[0].Path)
	assert.True(t, tree[1].IsFile())
	assert.Equal(t, "again", tree[1].Content)
}

func TestMarshalEmptyDirectoryKeepsChildren(t *testing.T) {
	tree := Tree{
		{Name: "empty", Path: "empty", Kind: KindDirectory},
		{Name: "a.txt", Path: "a.txt", Kind: KindFile, Content: "x"},
	}

	b, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"empty","path":"empty","type":"directory","children":[]},
		{"name":"a.txt","path":"a.txt","type":"file","content":"x"}
	]`, string(b))

	var back Tree
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back[0].IsDir())
	assert.Empty(t, back[0].Children)
}

func TestEditContentRebuildsOnlyTheSpine(t *testing.T) {
	tree := Upsert(nil, "src/a.js", "a")
	tree = Upsert(tree, "src/b.js", "b")
	tree = Upsert(tree, "index.html", "i")

	edited := EditContent(tree, "src/b.js", "B")

	assert.Equal(t, "B", Find(edited, "src/b.js").Content)
	assert.Equal(t, "b", Find(tree, "src/b.js").Content)
	assert.Same(t, Find(tree, "src/a.js"), Find(edited, "src/a.js"))
	assert.Same(t, Find(tree, "index.html"), Find(edited, "index.html"))
}

func TestEditContentMissingPathReturnsSameTree(t *testing.T) {
	tree := Upsert(nil, "src/a.js", "a")

	edited := EditContent(tree, "src", "not a file")
	require.Len(t, edited, 1)
	assert.Same(t, tree[0], edited[0])

	edited = EditContent(tree, "nope.js", "x")
	assert.Same(t, tree[0], edited[0])
}

func TestFilesAndCount(t *testing.T) {
	tree := Upsert(nil, "b/c.txt", "123")
	tree = Upsert(tree, "a.txt", "12")

	var paths []string
	for _, f := range Files(tree) {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"b/c.txt", "a.txt"}, paths)

	files, size := Count(tree)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(5), size)
}

func TestRender(t *testing.T) {
	tree := Upsert(nil, "src/app.js", "")
	tree = Upsert(tree, "src/util/fmt.js", "")
	tree = Upsert(tree, "index.html", "")

	want := "├─ src/\n" +
		"│  ├─ util/\n" +
		"│  │  └─ fmt.js\n" +
		"│  └─ app.js\n" +
		"└─ index.html"
	assert.Equal(t, want, Render(tree))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "2 KB", HumanSize(2048))
	assert.Equal(t, "20.0 MB", HumanSize(MaxUploadSize))
}
