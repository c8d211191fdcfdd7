// Package cycle runs one interaction: user message in, model reply out,
// file writes and chat messages applied to the workspace state.
package cycle

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Protocol-Lattice/vibe-code/src/changes"
	"github.com/Protocol-Lattice/vibe-code/src/command"
	"github.com/Protocol-Lattice/vibe-code/src/llm"
	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/prompt"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusBusy means another cycle was in flight; nothing was done.
	StatusBusy Status = "busy"
	// StatusIgnored means the message was blank; nothing was done.
	StatusIgnored Status = "ignored"
)

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSending
)

func (p Phase) String() string {
	if p == PhaseSending {
		return "sending"
	}
	return "idle"
}

// Result describes how a cycle ended.
type Result struct {
	ID       string
	Status   Status
	Response string
	Chats    []string
	Actions  []changes.Action
	Err      error
	Duration time.Duration
	// Revision is set by callers that publish the resulting tree.
	Revision int
}

// Resolver finds the client for a provider id.
type Resolver interface {
	Resolve(provider string) (llm.Client, error)
}

// Orchestrator runs cycles one at a time.
type Orchestrator struct {
	resolver Resolver
	logger   zerolog.Logger
	color    bool
	phase    atomic.Int32
}

type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithColorDiffs renders action diffs with ANSI colors.
func WithColorDiffs(on bool) Option { return func(o *Orchestrator) { o.color = on } }

func New(r Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{resolver: r, logger: log.Logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

// Busy reports whether a cycle is in flight.
func (o *Orchestrator) Busy() bool { return o.Phase() == PhaseSending }

// Run performs one cycle on st and returns the resulting state. It never
// fails: service errors become an assistant turn starting with "Error:" and
// leave the tree untouched. A call made while another cycle is running
// returns st unchanged with StatusBusy.
func (o *Orchestrator) Run(ctx context.Context, st workspace.State, message string) (workspace.State, Result) {
	res := Result{ID: uuid.NewString()}
	if strings.TrimSpace(message) == "" {
		res.Status = StatusIgnored
		return st, res
	}
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseSending)) {
		res.Status = StatusBusy
		return st, res
	}
	defer o.phase.Store(int32(PhaseIdle))

	start := time.Now()
	settings := st.Settings.Normalize()
	logger := o.logger.With().
		Str("cycle", res.ID).
		Str("provider", settings.Provider).
		Str("model", settings.Model).
		Logger()

	st = st.WithTurns(workspace.Turn{Role: workspace.RoleUser, Text: message})
	logger.Debug().Int("history", len(st.History)).Msg("sending")

	text, err := o.generate(ctx, settings, prompt.Build(prompt.Input{
		Request:   message,
		History:   st.History,
		Tree:      st.Tree,
		Knowledge: st.Knowledge,
	}))
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		st = st.WithTurns(workspace.Turn{Role: workspace.RoleModel, Text: "Error: " + err.Error()})
		logger.Error().Err(err).Dur("took", res.Duration).Msg("cycle failed")
		return st, res
	}

	res.Status = StatusSuccess
	res.Response = text
	st, res.Actions, res.Chats = Apply(st, command.Parse(text), o.color)
	logger.Info().
		Dur("took", res.Duration).
		Int("writes", len(res.Actions)).
		Int("chats", len(res.Chats)).
		Msg("cycle done")
	return st, res
}

func (o *Orchestrator) generate(ctx context.Context, settings workspace.Settings, full string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", settings.Provider, r)
		}
	}()
	client, err := o.resolver.Resolve(settings.Provider)
	if err != nil {
		return "", err
	}
	return client.Generate(ctx, llm.Request{
		Model:             settings.Model,
		SystemInstruction: settings.SystemPrompt,
		Prompt:            full,
	})
}

// Apply writes every FileWrite into the tree in order, so later writes to a
// path win, then appends every ChatMessage as a model turn.
func Apply(st workspace.State, cmds []command.Command, color bool) (workspace.State, []changes.Action, []string) {
	writes, chats := command.Split(cmds)

	tree := st.Tree
	actions := make([]changes.Action, 0, len(writes))
	for _, w := range writes {
		path := strings.Join(project.SplitPath(w.Path), "/")
		if path == "" {
			continue
		}
		var old *string
		if n := project.Find(tree, path); n.IsFile() {
			c := n.Content
			old = &c
		}
		actions = append(actions, changes.Classify(path, old, w.Content, color))
		tree = project.Upsert(tree, path, w.Content)
	}
	st = st.WithTree(tree)

	texts := make([]string, 0, len(chats))
	turns := make([]workspace.Turn, 0, len(chats))
	for _, c := range chats {
		texts = append(texts, c.Text)
		turns = append(turns, workspace.Turn{Role: workspace.RoleModel, Text: c.Text})
	}
	if len(turns) > 0 {
		st = st.WithTurns(turns...)
	}
	return st, actions, texts
}
