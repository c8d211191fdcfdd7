package project

import (
	"encoding/json"
	"sort"
	"strings"
)

// Kind distinguishes files from directories. The string values are the ones
// stored on disk, so they must not change.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Node is a single file or directory in a project tree.
//
// Nodes are never modified after construction. Every operation in this
// package that changes a tree returns a new Tree that reuses the untouched
// nodes of the old one, so holding on to an old Tree is always safe.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Kind     Kind    `json:"type"`
	Content  string  `json:"content,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// MarshalJSON always writes children for a directory, as an empty list when
// it has none.
func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	if n.Kind != KindDirectory {
		return json.Marshal(plain(n))
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(struct {
		plain
		Children []*Node `json:"children"`
	}{plain(n), children})
}

func (n *Node) IsDir() bool  { return n != nil && n.Kind == KindDirectory }
func (n *Node) IsFile() bool { return n != nil && n.Kind == KindFile }

// Tree is the ordered root level of a project.
type Tree []*Node

// clone copies the slice header only; the nodes are shared.
func (t Tree) clone() Tree {
	out := make(Tree, len(t), len(t)+1)
	copy(out, t)
	return out
}

// Find returns the node whose path is exactly path, searching every depth.
func Find(t Tree, path string) *Node {
	for _, n := range t {
		if n.Path == path {
			return n
		}
		if n.IsDir() {
			if found := Find(n.Children, path); found != nil {
				return found
			}
		}
	}
	return nil
}

// Upsert writes content to the file at path, creating any missing parent
// directories. An existing file keeps its position and only its content is
// replaced; a new file is appended and the level is re-sorted.
func Upsert(t Tree, path, content string) Tree {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return t
	}
	out, _ := insert(t, parts, 0, content, upsertPolicy)
	return out
}

// EditContent replaces the content of the file at path. Only the nodes on
// the way down to it are rebuilt. When no file matches, t is returned as is.
func EditContent(t Tree, path, content string) Tree {
	out, ok := edit(t, path, content)
	if !ok {
		return t
	}
	return out
}

func edit(level Tree, path, content string) (Tree, bool) {
	for i, n := range level {
		if n.IsFile() && n.Path == path {
			cp := *n
			cp.Content = content
			out := level.clone()
			out[i] = &cp
			return out, true
		}
		if n.IsDir() {
			children, ok := edit(n.Children, path, content)
			if !ok {
				continue
			}
			cp := *n
			cp.Children = children
			out := level.clone()
			out[i] = &cp
			return out, true
		}
	}
	return level, false
}

// insertPolicy controls how insert treats nodes that already exist.
type insertPolicy struct {
	// descend decides whether an existing node can be descended into for a
	// directory segment.
	descend func(n *Node, name string) bool
	// keepExisting leaves any node already named by the last segment alone.
	keepExisting bool
}

var (
	// upsertPolicy descends only into directories and overwrites files.
	upsertPolicy = insertPolicy{descend: matchDirectory}
	// ingestPolicy is the looser lookup used by folder ingestion: the first
	// upload of a name wins.
	ingestPolicy = insertPolicy{descend: matchName, keepExisting: true}
)

func matchDirectory(n *Node, name string) bool { return n.Name == name && n.IsDir() }

func matchName(n *Node, name string) bool { return n.Name == name }

// insert places a file at parts[i:] below level. The boolean is false when
// nothing was written: a directory segment resolved to an existing file, or
// the policy keeps the node already at the path.
//
// Upsert onto a name held by a directory appends a file of the same name,
// so such a level ends up with two siblings sharing it.
func insert(level Tree, parts []string, i int, content string, p insertPolicy) (Tree, bool) {
	name := parts[i]

	if i == len(parts)-1 {
		for idx, n := range level {
			if n.Name != name {
				continue
			}
			if p.keepExisting {
				return level, false
			}
			if !n.IsFile() {
				continue
			}
			cp := *n
			cp.Content = content
			out := level.clone()
			out[idx] = &cp
			return out, true
		}
		out := append(level.clone(), &Node{
			Name:    name,
			Path:    strings.Join(parts, "/"),
			Kind:    KindFile,
			Content: content,
		})
		sortLevel(out)
		return out, true
	}

	for idx, n := range level {
		if !p.descend(n, name) {
			continue
		}
		if !n.IsDir() {
			return level, false
		}
		children, ok := insert(n.Children, parts, i+1, content, p)
		if !ok {
			return level, false
		}
		cp := *n
		cp.Children = children
		out := level.clone()
		out[idx] = &cp
		return out, true
	}

	children, ok := insert(nil, parts, i+1, content, p)
	if !ok {
		return level, false
	}
	out := append(level.clone(), &Node{
		Name:     name,
		Path:     strings.Join(parts[:i+1], "/"),
		Kind:     KindDirectory,
		Children: children,
	})
	sortLevel(out)
	return out, true
}

// sortLevel orders siblings directories first, then by name.
func sortLevel(level Tree) {
	sort.SliceStable(level, func(i, j int) bool {
		a, b := level[i], level[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return a.Name < b.Name
	})
}

// SplitPath splits a slash separated path and drops empty segments.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Walk visits every node depth first in tree order. Returning false from fn
// stops the walk.
func Walk(t Tree, fn func(n *Node) bool) bool {
	for _, n := range t {
		if !fn(n) {
			return false
		}
		if n.IsDir() && !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}

// Files lists every file node in tree order.
func Files(t Tree) []*Node {
	var out []*Node
	Walk(t, func(n *Node) bool {
		if n.IsFile() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Count returns the number of files and their total content size in bytes.
func Count(t Tree) (files int, bytes int64) {
	for _, f := range Files(t) {
		files++
		bytes += int64(len(f.Content))
	}
	return files, bytes
}
