// Command mcp-server serves the vibe-code workspace tools over MCP on stdio.
// It is the same server as `vibe mcp`, for clients that want a dedicated
// binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Protocol-Lattice/vibe-code/src/config"
	"github.com/Protocol-Lattice/vibe-code/src/cycle"
	"github.com/Protocol-Lattice/vibe-code/src/llm"
	"github.com/Protocol-Lattice/vibe-code/src/logging"
	"github.com/Protocol-Lattice/vibe-code/src/mcpserver"
	"github.com/Protocol-Lattice/vibe-code/src/store"
)

func main() {
	configPath := flag.String("config", "", "configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logFile := config.ExpandHome(cfg.Log.File)
	if logFile == "" {
		logFile = filepath.Join(config.HomeDir(), "mcp-server.log")
	}
	closer, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: logFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := store.Open(cfg.Store.Backend, config.ExpandHome(cfg.Store.Path))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	reg := llm.NewDefaultRegistry(llm.Options{
		APIKey:            cfg.APIKey,
		DefaultModel:      cfg.LLM.Model,
		UTCPProvidersFile: config.ExpandHome(cfg.UTCP.ProvidersFile),
		RPS:               cfg.LLM.RPS,
		Burst:             cfg.LLM.Burst,
		Timeout:           cfg.LLM.Timeout,
	})

	log.Info().Str("server", mcpserver.Name).Str("version", mcpserver.Version).Msg("serving MCP over stdio")
	return mcpserver.New(st, cycle.New(reg)).ServeStdio()
}
