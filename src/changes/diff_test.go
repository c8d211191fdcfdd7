package changes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffEqualIsEmpty(t *testing.T) {
	assert.Empty(t, Diff("a.txt", "same\n", "same\n", true))
}

func TestDiffSingleLineChange(t *testing.T) {
	got := Diff("f.txt", "a\nb\nc\n", "a\nB\nc\n", false)

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "diff --git a/f.txt b/f.txt", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "index "))
	assert.Equal(t, []string{
		"--- a/f.txt",
		"+++ b/f.txt",
		"@@ -1,3 +1,3 @@",
		" a",
		"-b",
		"+B",
		" c",
	}, lines[2:])
}

func TestDiffNewFile(t *testing.T) {
	got := Diff("new.js", "", "one\ntwo", false)

	assert.Contains(t, got, "@@ -0,0 +1,2 @@\n+one\n+two\n")
}

func TestDiffSplitsDistantHunks(t *testing.T) {
	var oldB, newB strings.Builder
	for i := 0; i < 20; i++ {
		line := string(rune('a' + i))
		oldB.WriteString(line + "\n")
		switch i {
		case 1, 18:
			newB.WriteString(strings.ToUpper(line) + "\n")
		default:
			newB.WriteString(line + "\n")
		}
	}

	got := Diff("x", oldB.String(), newB.String(), false)

	assert.Equal(t, 2, strings.Count(got, "@@ -"))
	assert.Contains(t, got, "@@ -1,5 +1,5 @@")
	assert.Contains(t, got, "@@ -16,5 +16,5 @@")
}

func TestDiffColor(t *testing.T) {
	got := Diff("f", "a", "b", true)
	assert.Contains(t, got, colorRed+"-a"+colorReset)
	assert.Contains(t, got, colorGreen+"+b"+colorReset)
}

func TestClassify(t *testing.T) {
	old := "x"
	assert.Equal(t, Created, Classify("p", nil, "x", false).Kind)
	assert.Equal(t, Action{Path: "p", Kind: Unchanged}, Classify("p", &old, "x", false))

	upd := Classify("p", &old, "y", false)
	assert.Equal(t, Updated, upd.Kind)
	assert.Contains(t, upd.Diff, "-x\n+y\n")
}
