// Package changes reports what a cycle did to the project files.
package changes

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// Kind of change applied to one file.
type Kind string

const (
	Created   Kind = "created"
	Updated   Kind = "updated"
	Unchanged Kind = "unchanged"
)

// Action describes one applied file write.
type Action struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
	Diff string `json:"diff,omitempty"`
}

// edit is a single line of a diff.
type edit struct {
	tag string // " " same, "+" add, "-" del
	txt string
}

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

type palette struct {
	reset, red, green, cyan, gray, bold string
}

func paletteFor(color bool) palette {
	if !color {
		return palette{}
	}
	return palette{colorReset, colorRed, colorGreen, colorCyan, colorGray, colorBold}
}

// Classify compares the previous content of a file (nil when it did not
// exist) with the content written.
func Classify(path string, old *string, content string, color bool) Action {
	switch {
	case old == nil:
		return Action{Path: path, Kind: Created, Diff: Diff(path, "", content, color)}
	case *old == content:
		return Action{Path: path, Kind: Unchanged}
	default:
		return Action{Path: path, Kind: Updated, Diff: Diff(path, *old, content, color)}
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// Diff renders a git style unified diff with three lines of context. It
// returns "" when the contents are equal.
func Diff(path, oldS, newS string, color bool) string {
	if oldS == newS {
		return ""
	}
	c := paletteFor(color)

	oldLines := splitLines(oldS)
	newLines := splitLines(newS)
	n, m := len(oldLines), len(newLines)

	// LCS table.
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var seq []edit
	i, j := 0, 0
	for i < n && j < m {
		if oldLines[i] == newLines[j] {
			seq = append(seq, edit{" ", oldLines[i]})
			i++
			j++
		} else if lcs[i+1][j] >= lcs[i][j+1] {
			seq = append(seq, edit{"-", oldLines[i]})
			i++
		} else {
			seq = append(seq, edit{"+", newLines[j]})
			j++
		}
	}
	for ; i < n; i++ {
		seq = append(seq, edit{"-", oldLines[i]})
	}
	for ; j < m; j++ {
		seq = append(seq, edit{"+", newLines[j]})
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%sdiff --git a/%s b/%s%s\n", c.bold+c.cyan, path, path, c.reset)
	fmt.Fprintf(&out, "index %s..%s 100644\n", shortSHA(oldS), shortSHA(newS))
	fmt.Fprintf(&out, "%s--- a/%s%s\n", c.cyan, path, c.reset)
	fmt.Fprintf(&out, "%s+++ b/%s%s\n", c.cyan, path, c.reset)

	for _, h := range hunks(seq, 3) {
		fmt.Fprintf(&out, "%s@@ -%d,%d +%d,%d @@%s\n", c.cyan, h.oldStart, h.oldCount, h.newStart, h.newCount, c.reset)
		for _, e := range h.lines {
			switch e.tag {
			case "+":
				fmt.Fprintf(&out, "%s+%s%s\n", c.green, e.txt, c.reset)
			case "-":
				fmt.Fprintf(&out, "%s-%s%s\n", c.red, e.txt, c.reset)
			default:
				fmt.Fprintf(&out, "%s %s%s\n", c.gray, e.txt, c.reset)
			}
		}
	}
	return out.String()
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []edit
}

// hunks groups the edit script into hunks, merging changes closer than
// 2*context lines.
func hunks(seq []edit, context int) []hunk {
	var out []hunk
	oldLine, newLine := make([]int, len(seq)), make([]int, len(seq))
	o, nw := 0, 0
	for idx, e := range seq {
		oldLine[idx], newLine[idx] = o, nw
		if e.tag != "+" {
			o++
		}
		if e.tag != "-" {
			nw++
		}
	}

	idx := 0
	for idx < len(seq) {
		if seq[idx].tag == " " {
			idx++
			continue
		}
		start := max(0, idx-context)
		end := idx
		for end < len(seq) {
			if seq[end].tag != " " {
				end++
				continue
			}
			if !hasChangeAhead(seq[end:min(len(seq), end+2*context+1)]) {
				break
			}
			end++
		}
		stop := min(len(seq), end+context)

		h := hunk{oldStart: oldLine[start] + 1, newStart: newLine[start] + 1}
		for _, e := range seq[start:stop] {
			if e.tag != "+" {
				h.oldCount++
			}
			if e.tag != "-" {
				h.newCount++
			}
			h.lines = append(h.lines, e)
		}
		if h.oldCount == 0 {
			h.oldStart--
		}
		if h.newCount == 0 {
			h.newStart--
		}
		out = append(out, h)
		idx = stop
	}
	return out
}

// shortSHA returns a short SHA1 label for diff headers.
func shortSHA(s string) string {
	h := sha1.Sum([]byte(s))
	return fmt.Sprintf("%x", h[:3])
}

// hasChangeAhead checks if the next few edits contain +/-
func hasChangeAhead(next []edit) bool {
	for _, e := range next {
		if e.tag == "+" || e.tag == "-" {
			return true
		}
	}
	return false
}
