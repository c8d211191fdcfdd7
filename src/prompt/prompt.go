// Package prompt assembles the single text document sent to the generative
// service for one cycle.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// Input is what a prompt is built from. History is expected to end with the
// turn carrying Request.
type Input struct {
	Request   string
	History   []workspace.Turn
	Tree      project.Tree
	Knowledge []workspace.Document
}

const closing = "Please provide your response based on the user's request and the provided context."

// Build renders the request, the earlier conversation, the project files and
// the knowledge base, in that order. Empty sections are left out entirely.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString("Here is the user's request:\n<user_request>\n")
	b.WriteString(in.Request)
	b.WriteString("\n</user_request>\n\n")

	// The last turn is the request itself.
	if len(in.History) > 1 {
		b.WriteString("Here is the recent chat history:\n<chat_history>\n")
		for _, t := range in.History[:len(in.History)-1] {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
		b.WriteString("</chat_history>\n\n")
	}

	if len(in.Tree) > 0 {
		b.WriteString("Here are the current project files:\n<project_files>\n")
		writeFiles(&b, in.Tree, "")
		b.WriteString("</project_files>\n\n")
	}

	if len(in.Knowledge) > 0 {
		b.WriteString("Here is the content from the knowledge base for context:\n<knowledge_base>\n")
		for _, d := range in.Knowledge {
			fmt.Fprintf(&b, "--- Document: %s ---\n%s\n\n", d.Name, d.Content)
		}
		b.WriteString("</knowledge_base>\n\n")
	}

	b.WriteString(closing)
	return b.String()
}

func writeFiles(b *strings.Builder, level project.Tree, indent string) {
	for _, n := range level {
		if n.IsFile() {
			fmt.Fprintf(b, "%s--- File: %s ---\n%s\n\n", indent, n.Path, n.Content)
			continue
		}
		fmt.Fprintf(b, "%s--- Directory: %s ---\n", indent, n.Path)
		writeFiles(b, n.Children, indent+"  ")
	}
}
