// Package workspace holds the editor state that a cycle reads and produces:
// settings, the project tree, the conversation and the knowledge base.
package workspace

import (
	"time"

	"github.com/Protocol-Lattice/vibe-code/src/project"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"content"`
}

// Document is a reference document added to the knowledge base.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// State is everything a cycle needs. Methods return a modified copy and never
// touch the receiver's slices.
type State struct {
	Settings   Settings
	Tree       project.Tree
	ActiveFile string
	History    []Turn
	Knowledge  []Document
}

func DefaultState() State {
	return State{Settings: DefaultSettings()}
}

func (s State) WithSettings(settings Settings) State {
	s.Settings = settings.Normalize()
	return s
}

// WithTurns appends turns to a fresh copy of the history.
func (s State) WithTurns(turns ...Turn) State {
	h := make([]Turn, 0, len(s.History)+len(turns))
	h = append(h, s.History...)
	s.History = append(h, turns...)
	return s
}

func (s State) WithTree(tree project.Tree) State {
	s.Tree = tree
	return s
}

// ReplaceTree installs a freshly uploaded tree. The conversation and the
// active file belong to the old project and are dropped.
func (s State) ReplaceTree(tree project.Tree) State {
	s.Tree = tree
	s.History = nil
	s.ActiveFile = ""
	return s
}

// LoadTemplate swaps in the starter project and opens index.html.
func (s State) LoadTemplate() State {
	s.Tree = StarterTemplate()
	s.ActiveFile = "index.html"
	return s
}

// SelectFile makes path the active file if it names a file in the tree.
func (s State) SelectFile(path string) (State, bool) {
	if !project.Find(s.Tree, path).IsFile() {
		return s, false
	}
	s.ActiveFile = path
	return s, true
}

// Active returns the active file node, or nil.
func (s State) Active() *project.Node {
	if s.ActiveFile == "" {
		return nil
	}
	n := project.Find(s.Tree, s.ActiveFile)
	if !n.IsFile() {
		return nil
	}
	return n
}

// EditActive replaces the content of the active file.
func (s State) EditActive(content string) State {
	if s.Active() == nil {
		return s
	}
	s.Tree = project.EditContent(s.Tree, s.ActiveFile, content)
	return s
}

// NewDocument turns a file node into a reference document keyed by its path.
func NewDocument(n *project.Node, now time.Time) Document {
	return Document{
		ID:        n.Path,
		Name:      n.Name,
		Content:   n.Content,
		CreatedAt: now.UnixMilli(),
	}
}

// HasReference reports whether a document with id is in the knowledge base.
func (s State) HasReference(id string) bool {
	for _, d := range s.Knowledge {
		if d.ID == id {
			return true
		}
	}
	return false
}

// AddReference adds the file at path to the knowledge base. Directories,
// unknown paths and documents already present are ignored.
func (s State) AddReference(path string, now time.Time) (State, bool) {
	n := project.Find(s.Tree, path)
	if !n.IsFile() || s.HasReference(n.Path) {
		return s, false
	}
	k := make([]Document, 0, len(s.Knowledge)+1)
	k = append(k, s.Knowledge...)
	s.Knowledge = append(k, NewDocument(n, now))
	return s, true
}

func (s State) RemoveReference(id string) State {
	k := make([]Document, 0, len(s.Knowledge))
	for _, d := range s.Knowledge {
		if d.ID != id {
			k = append(k, d)
		}
	}
	s.Knowledge = k
	return s
}

func (s State) ClearKnowledge() State {
	s.Knowledge = nil
	return s
}

func (s State) ClearHistory() State {
	s.History = nil
	return s
}
