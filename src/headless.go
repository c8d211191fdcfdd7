package src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Protocol-Lattice/vibe-code/src/changes"
	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/store"
)

// RunHeadless loads the workspace, runs one cycle for message, persists the
// result and prints the writes, their diffs and the assistant's chat
// messages to w. A failed cycle is still persisted, since the error turn is
// part of the conversation, and is then reported as an error.
func RunHeadless(ctx context.Context, orch *cycle.Orchestrator, st store.Store, pub Publisher, message string, w io.Writer) (cycle.Result, error) {
	if orch == nil {
		return cycle.Result{}, errors.New("orchestrator is nil")
	}
	if strings.TrimSpace(message) == "" {
		return cycle.Result{}, errors.New("message cannot be empty")
	}

	state, err := store.LoadState(ctx, st)
	if err != nil {
		return cycle.Result{}, fmt.Errorf("load workspace: %w", err)
	}

	next, res := orch.Run(ctx, state, message)
	switch res.Status {
	case cycle.StatusBusy:
		return res, errors.New("another request is already running")
	case cycle.StatusIgnored:
		return res, nil
	}

	if err := store.SaveState(ctx, st, next); err != nil {
		return res, fmt.Errorf("save workspace: %w", err)
	}
	if pub != nil && len(res.Actions) > 0 {
		res.Revision = pub.Publish(next.Tree)
	}

	printResult(w, res)
	if res.Status == cycle.StatusFailed {
		return res, res.Err
	}
	return res, nil
}

func printResult(w io.Writer, res cycle.Result) {
	for _, a := range res.Actions {
		switch a.Kind {
		case changes.Unchanged:
			fmt.Fprintf(w, "· %s unchanged\n", a.Path)
			continue
		case changes.Created:
			fmt.Fprintf(w, "💾 Created %s\n", a.Path)
		default:
			fmt.Fprintf(w, "💾 Updated %s\n", a.Path)
		}
		if a.Diff != "" {
			fmt.Fprintln(w, strings.TrimRight(a.Diff, "\n"))
		}
	}
	if res.Revision > 0 {
		fmt.Fprintf(w, "🔄 Preview revision %d\n", res.Revision)
	}
	for _, chat := range res.Chats {
		fmt.Fprintf(w, "🤖 %s\n", chat)
	}
	if res.Status == cycle.StatusFailed && res.Err != nil {
		fmt.Fprintf(w, "❌ %v\n", res.Err)
	}
}
