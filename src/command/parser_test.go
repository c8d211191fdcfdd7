package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Command
	}{
		{
			name: "files precede chats regardless of position",
			in:   `<chat>hi</chat><file path="x.js">1</file>`,
			want: []Command{FileWrite{Path: "x.js", Content: "1"}, ChatMessage{Text: "hi"}},
		},
		{
			name: "document order within each kind",
			in: "<chat>one</chat>\n<file path=\"a.html\"><p>a</p></file>\n" +
				"<chat>two</chat>\n<file path=\"dir/b.css\">b{}</file>",
			want: []Command{
				FileWrite{Path: "a.html", Content: "<p>a</p>"},
				FileWrite{Path: "dir/b.css", Content: "b{}"},
				ChatMessage{Text: "one"},
				ChatMessage{Text: "two"},
			},
		},
		{
			name: "bodies keep newlines",
			in:   "<file path=\"main.js\">\nconsole.log(1)\n</file>",
			want: []Command{FileWrite{Path: "main.js", Content: "\nconsole.log(1)\n"}},
		},
		{
			name: "plain text falls back to one chat",
			in:   "just text, no tags",
			want: []Command{ChatMessage{Text: "just text, no tags"}},
		},
		{
			name: "fallback keeps the raw text untrimmed",
			in:   "  padded  \n",
			want: []Command{ChatMessage{Text: "  padded  \n"}},
		},
		{
			name: "empty input",
			in:   "",
			want: []Command{},
		},
		{
			name: "whitespace only",
			in:   " \n\t ",
			want: []Command{},
		},
		{
			name: "unterminated block falls back",
			in:   `<file path="a.js">never closed`,
			want: []Command{ChatMessage{Text: `<file path="a.js">never closed`}},
		},
		{
			name: "text outside blocks is dropped",
			in:   "Sure! <chat>Done</chat> bye",
			want: []Command{ChatMessage{Text: "Done"}},
		},
		{
			name: "empty bodies still count",
			in:   `<file path="empty.txt"></file><chat></chat>`,
			want: []Command{FileWrite{Path: "empty.txt"}, ChatMessage{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.in)); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	writes, chats := Split(Parse(`<chat>a</chat><file path="p">c</file><chat>b</chat>`))

	assert.Equal(t, []FileWrite{{Path: "p", Content: "c"}}, writes)
	assert.Equal(t, []ChatMessage{{Text: "a"}, {Text: "b"}}, chats)
}
