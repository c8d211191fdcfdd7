// Package preview turns a project tree into a single self-contained HTML
// document and serves it with live reload.
package preview

import (
	"regexp"

	"github.com/Protocol-Lattice/vibe-code/src/project"
)

// EntryPath is the document the preview starts from.
const EntryPath = "index.html"

// Placeholder is shown when the project has no entry document.
const Placeholder = `<div style="color: grey; font-family: sans-serif; text-align: center; padding-top: 2rem;">No index.html file found in the project.</div>`

var (
	stylesheetRe = regexp.MustCompile(`<link\s+.*?href=["'](.*?\.css)["'].*?>`)
	scriptRe     = regexp.MustCompile(`<script\s+.*?src=["'](.*?\.js)["'].*?>\s*</script>`)
)

// Compose inlines the stylesheets and scripts referenced by index.html.
// References that do not resolve to a non-empty file in the tree are kept
// as written. Inlined content is not scanned again.
func Compose(tree project.Tree) string {
	entry := project.Find(tree, EntryPath)
	if !entry.IsFile() {
		return Placeholder
	}
	html := inline(tree, entry.Content, stylesheetRe, "<style>", "</style>")
	return inline(tree, html, scriptRe, "<script>", "</script>")
}

func inline(tree project.Tree, html string, re *regexp.Regexp, open, close string) string {
	return re.ReplaceAllStringFunc(html, func(tag string) string {
		m := re.FindStringSubmatch(tag)
		if len(m) < 2 {
			return tag
		}
		f := project.Find(tree, m[1])
		if f == nil || f.Content == "" {
			return tag
		}
		return open + f.Content + close
	})
}
