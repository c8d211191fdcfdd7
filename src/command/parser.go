// Package command turns a model response into file writes and chat messages.
package command

import (
	"regexp"
	"strings"
)

// Command is either a FileWrite or a ChatMessage.
type Command interface {
	isCommand()
}

// FileWrite asks for the file at Path to hold Content.
type FileWrite struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ChatMessage is text meant for the user.
type ChatMessage struct {
	Text string `json:"text"`
}

func (FileWrite) isCommand()   {}
func (ChatMessage) isCommand() {}

var (
	fileRe = regexp.MustCompile(`<file\s+path="([^"]+)">([\s\S]*?)</file>`)
	chatRe = regexp.MustCompile(`<chat>([\s\S]*?)</chat>`)
)

// Parse extracts commands from a response. File blocks and chat blocks are
// scanned separately, so every FileWrite comes before every ChatMessage, each
// group in document order. A response without any block becomes a single
// ChatMessage unless it is blank.
func Parse(response string) []Command {
	var cmds []Command
	for _, m := range fileRe.FindAllStringSubmatch(response, -1) {
		cmds = append(cmds, FileWrite{Path: m[1], Content: m[2]})
	}
	for _, m := range chatRe.FindAllStringSubmatch(response, -1) {
		cmds = append(cmds, ChatMessage{Text: m[1]})
	}

	if len(cmds) == 0 && strings.TrimSpace(response) != "" {
		return []Command{ChatMessage{Text: response}}
	}
	if cmds == nil {
		return []Command{}
	}
	return cmds
}

// Split separates commands by kind, keeping their relative order.
func Split(cmds []Command) (writes []FileWrite, chats []ChatMessage) {
	for _, c := range cmds {
		switch c := c.(type) {
		case FileWrite:
			writes = append(writes, c)
		case ChatMessage:
			chats = append(chats, c)
		}
	}
	return writes, chats
}
