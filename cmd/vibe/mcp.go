package main

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Protocol-Lattice/vibe-code/src/mcpserver"
)

// MCPCommand returns the mcp command
func MCPCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the workspace tools over MCP on stdin/stdout",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Also serve the live preview and publish every change",
			},
		},
		Action: runMCP,
	}
}

func runMCP(c *cli.Context) error {
	// stdout carries the protocol, so logs always go to a file.
	e, err := setup(c, envOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer e.Close()

	s := mcpserver.New(e.st, e.orchestrator(false))
	if c.Bool("preview") {
		srv, err := e.previewServer("")
		if err != nil {
			return err
		}
		st, err := e.load(c.Context)
		if err != nil {
			return err
		}
		srv.Publish(st.Tree)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Str("addr", srv.Addr()).Msg("preview server stopped")
			}
		}()
		defer shutdown(srv)
		s.WithPublisher(srv)
	}

	log.Info().Str("server", mcpserver.Name).Msg("serving MCP over stdio")
	return s.ServeStdio()
}
