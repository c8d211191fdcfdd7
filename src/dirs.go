package src

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
)

const (
	useDirPrefix = "✅"
	parentDir    = "⬆️ ../"
)

func loadDirs(path string) []list.Item {
	if path == "" {
		path, _ = os.Getwd()
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return []list.Item{dirItem{name: "(error reading dir)", path: path}}
	}
	var items []list.Item

	// 1. Add confirmation item
	items = append(items, dirItem{name: fmt.Sprintf("%s Upload this folder (%s)", useDirPrefix, filepath.Base(path)), path: path})

	// 2. Add parent directory navigation
	if parent := filepath.Dir(path); parent != path {
		items = append(items, dirItem{name: parentDir, path: parent})
	}

	// 3. Add subdirectories
	for _, e := range entries { // Already sorted by ReadDir
		if e.IsDir() {
			items = append(items, dirItem{name: "📁 " + e.Name() + "/", path: filepath.Join(path, e.Name())})
		}
	}
	return items
}
