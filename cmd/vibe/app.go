package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Protocol-Lattice/vibe-code/src/config"
	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/llm"
	"github.com/Protocol-Lattice/vibe-code/src/logging"
	"github.com/Protocol-Lattice/vibe-code/src/store"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// env is what every command works with: the loaded configuration and the
// opened workspace store.
type env struct {
	cfg  *config.Config
	st   store.Store
	logs io.Closer
}

type envOptions struct {
	// logToFile sends logs to a file, for commands that own the terminal.
	logToFile bool
}

func setup(c *cli.Context, opts envOptions) (*env, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := c.String("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logFile := config.ExpandHome(cfg.Log.File)
	if logFile == "" && opts.logToFile {
		logFile = filepath.Join(config.HomeDir(), "vibe.log")
	}
	closer, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: logFile})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Backend, config.ExpandHome(cfg.Store.Path))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	e := &env{cfg: cfg, st: st, logs: closer}
	if err := e.seedSettings(c.Context); err != nil {
		e.Close()
		return nil, err
	}
	log.Debug().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Str("provider", cfg.LLM.Provider).
		Msg("workspace store opened")

	return e, nil
}

func (e *env) Close() {
	if err := e.st.Close(); err != nil {
		log.Warn().Err(err).Msg("closing store")
	}
	e.logs.Close()
}

// orchestrator builds the provider registry from the configuration.
func (e *env) orchestrator(color bool) *cycle.Orchestrator {
	reg := llm.NewDefaultRegistry(llm.Options{
		APIKey:            e.cfg.APIKey,
		DefaultModel:      e.cfg.LLM.Model,
		UTCPProvidersFile: config.ExpandHome(e.cfg.UTCP.ProvidersFile),
		RPS:               e.cfg.LLM.RPS,
		Burst:             e.cfg.LLM.Burst,
		Timeout:           e.cfg.LLM.Timeout,
	})
	reg.Register(workspace.ProviderFake, llm.NewFakeClient())
	return cycle.New(reg, cycle.WithColorDiffs(color))
}

// seedSettings gives a workspace that was never saved the configured
// provider and model.
func (e *env) seedSettings(ctx context.Context) error {
	if _, err := e.st.Load(ctx, store.KeySettings); !errors.Is(err, store.ErrNotFound) {
		return err
	}
	st, err := e.load(ctx)
	if err != nil {
		return err
	}
	s := st.Settings
	s.Provider, s.Model = e.cfg.LLM.Provider, e.cfg.LLM.Model
	return e.save(ctx, st.WithSettings(s))
}

func (e *env) load(ctx context.Context) (workspace.State, error) {
	st, err := store.LoadState(ctx, e.st)
	if err != nil {
		return st, fmt.Errorf("failed to load workspace: %w", err)
	}
	return st, nil
}

func (e *env) save(ctx context.Context, st workspace.State) error {
	if err := store.SaveState(ctx, e.st, st); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}
