package project

import (
	"fmt"
	"strings"
)

// Render draws the tree as an indented listing, one entry per line.
// Directories carry a trailing slash.
func Render(t Tree) string {
	var lines []string
	var walk func(prefix string, level Tree)
	walk = func(prefix string, level Tree) {
		for i, n := range level {
			marker := "├─ "
			if i == len(level)-1 {
				marker = "└─ "
			}
			line := prefix + marker + n.Name
			if n.IsDir() {
				line += "/"
			}
			lines = append(lines, line)
			if n.IsDir() && len(n.Children) > 0 {
				next := prefix + "│  "
				if i == len(level)-1 {
					next = prefix + "   "
				}
				walk(next, n.Children)
			}
		}
	}
	walk("", t)
	return strings.Join(lines, "\n")
}

// HumanSize formats a byte count for status lines.
func HumanSize(n int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.0f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
