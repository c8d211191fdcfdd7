// Package mcpserver exposes the workspace to other agents as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Protocol-Lattice/vibe-code/src/changes"
	"github.com/Protocol-Lattice/vibe-code/src/command"
	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/preview"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

const (
	Name    = "vibe-code"
	Version = "1.0.0"

	toolListFiles      = "list_files"
	toolReadFile       = "read_file"
	toolWriteFile      = "write_file"
	toolParseResponse  = "parse_response"
	toolComposePreview = "compose_preview"
	toolAddReference   = "add_reference"
	toolClearKnowledge = "clear_knowledge"
	toolSendMessage    = "send_message"
)

var titleCase = cases.Title(language.English)

// Publisher receives every tree the tools produce.
type Publisher interface {
	Publish(tree project.Tree) int
}

// Server holds the tool handlers. Every handler loads the workspace from the
// store, changes it and saves it back, one handler at a time.
type Server struct {
	st   store.Store
	orch *cycle.Orchestrator
	pub  Publisher
	now  func() time.Time
	mu   sync.Mutex
}

func New(st store.Store, orch *cycle.Orchestrator) *Server {
	return &Server{st: st, orch: orch, now: time.Now}
}

// WithPublisher forwards tree changes to pub, typically the preview server.
func (s *Server) WithPublisher(pub Publisher) *Server {
	s.pub = pub
	return s
}

// MCP builds the mcp-go server with every tool registered.
func (s *Server) MCP() *server.MCPServer {
	ms := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(ms)
	return ms
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCP())
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func (s *Server) registerTools(ms *server.MCPServer) {
	ms.AddTool(mcp.Tool{
		Name:        toolListFiles,
		Description: "List the project files as an indented tree",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleListFiles)

	ms.AddTool(mcp.Tool{
		Name:        toolReadFile,
		Description: "Read a project file by its path relative to the project root",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("File path, e.g. src/index.js"),
			},
			Required: []string{"path"},
		},
	}, s.handleReadFile)

	ms.AddTool(mcp.Tool{
		Name:        toolWriteFile,
		Description: "Create or replace a project file; missing directories are created",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":    stringProp("File path relative to the project root"),
				"content": stringProp("Complete new file content"),
			},
			Required: []string{"path", "content"},
		},
	}, s.handleWriteFile)

	ms.AddTool(mcp.Tool{
		Name:        toolParseResponse,
		Description: "Parse an assistant reply into its <file> and <chat> commands",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": stringProp("Raw assistant reply"),
			},
			Required: []string{"text"},
		},
	}, s.handleParseResponse)

	ms.AddTool(mcp.Tool{
		Name:        toolComposePreview,
		Description: "Return index.html with its stylesheets and scripts inlined",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleComposePreview)

	ms.AddTool(mcp.Tool{
		Name:        toolAddReference,
		Description: "Add a project file to the knowledge base sent with every request",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("File path relative to the project root"),
			},
			Required: []string{"path"},
		},
	}, s.handleAddReference)

	ms.AddTool(mcp.Tool{
		Name:        toolClearKnowledge,
		Description: "Remove every document from the knowledge base",
		InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}},
	}, s.handleClearKnowledge)

	ms.AddTool(mcp.Tool{
		Name:        toolSendMessage,
		Description: "Send a message to the assistant and apply the files it writes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": stringProp("Request for the assistant"),
			},
			Required: []string{"message"},
		},
	}, s.handleSendMessage)
}

// update runs fn on the stored workspace and saves the result when fn
// reports a change.
func (s *Server) update(ctx context.Context, fn func(workspace.State) (workspace.State, bool, *mcp.CallToolResult)) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := store.LoadState(ctx, s.st)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	next, changed, res := fn(st)
	if changed {
		if err := store.SaveState(ctx, s.st, next); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save workspace: %v", err)), nil
		}
		if s.pub != nil {
			s.pub.Publish(next.Tree)
		}
	}
	return res, nil
}

func (s *Server) read(ctx context.Context) (workspace.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.LoadState(ctx, s.st)
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.read(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	if len(st.Tree) == 0 {
		return mcp.NewToolResultText("No files in the project"), nil
	}
	return mcp.NewToolResultText(project.Render(st.Tree)), nil
}

func (s *Server) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	st, err := s.read(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	n := project.Find(st.Tree, path)
	if !n.IsFile() {
		return mcp.NewToolResultError(fmt.Sprintf("No file at %q", path)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) handleWriteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	content := request.GetString("content", "")
	return s.update(ctx, func(st workspace.State) (workspace.State, bool, *mcp.CallToolResult) {
		next, actions, _ := cycle.Apply(st, []command.Command{command.FileWrite{Path: path, Content: content}}, false)
		if len(actions) == 0 {
			return st, false, mcp.NewToolResultError(fmt.Sprintf("Invalid path %q", path))
		}
		if _, ok := next.SelectFile(actions[0].Path); !ok {
			return st, false, mcp.NewToolResultError(fmt.Sprintf("Cannot write %q: a file or directory is in the way", path))
		}
		return next, true, mcp.NewToolResultText(fmt.Sprintf("%s %s", titleCase.String(string(actions[0].Kind)), actions[0].Path))
	})
}

type commandJSON struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (s *Server) handleParseResponse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmds := command.Parse(request.GetString("text", ""))
	out := make([]commandJSON, 0, len(cmds))
	for _, c := range cmds {
		switch c := c.(type) {
		case command.FileWrite:
			out = append(out, commandJSON{Type: "file", Path: c.Path, Content: c.Content})
		case command.ChatMessage:
			out = append(out, commandJSON{Type: "chat", Text: c.Text})
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleComposePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.read(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	return mcp.NewToolResultText(preview.Compose(st.Tree)), nil
}

func (s *Server) handleAddReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	return s.update(ctx, func(st workspace.State) (workspace.State, bool, *mcp.CallToolResult) {
		if st.HasReference(path) {
			return st, false, mcp.NewToolResultText(fmt.Sprintf("%s is already in the knowledge base", path))
		}
		next, ok := st.AddReference(path, s.now())
		if !ok {
			return st, false, mcp.NewToolResultError(fmt.Sprintf("No file at %q", path))
		}
		return next, true, mcp.NewToolResultText(fmt.Sprintf("Added %s (%d documents)", path, len(next.Knowledge)))
	})
}

func (s *Server) handleClearKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.update(ctx, func(st workspace.State) (workspace.State, bool, *mcp.CallToolResult) {
		n := len(st.Knowledge)
		return st.ClearKnowledge(), n > 0, mcp.NewToolResultText(fmt.Sprintf("Removed %d documents", n))
	})
}

type cycleJSON struct {
	Status  cycle.Status     `json:"status"`
	Chats   []string         `json:"chats"`
	Actions []changes.Action `json:"actions"`
	Error   string           `json:"error,omitempty"`
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := request.GetString("message", "")
	return s.update(ctx, func(st workspace.State) (workspace.State, bool, *mcp.CallToolResult) {
		next, res := s.orch.Run(ctx, st, message)
		out := cycleJSON{Status: res.Status, Chats: res.Chats, Actions: res.Actions}
		if out.Chats == nil {
			out.Chats = []string{}
		}
		if out.Actions == nil {
			out.Actions = []changes.Action{}
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return st, false, mcp.NewToolResultError(err.Error())
		}
		log.Debug().Str("cycle", res.ID).Str("status", string(res.Status)).Msg("mcp send_message")

		changed := res.Status == cycle.StatusSuccess || res.Status == cycle.StatusFailed
		if res.Status == cycle.StatusBusy || res.Status == cycle.StatusFailed {
			return next, changed, mcp.NewToolResultError(string(b))
		}
		return next, changed, mcp.NewToolResultText(string(b))
	})
}
