package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	app "github.com/Protocol-Lattice/vibe-code/src"
	"github.com/Protocol-Lattice/vibe-code/src/preview"
)

// TUICommand returns the tui command
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive editor",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-preview",
				Usage: "Do not start the live preview server",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Start the folder picker in `DIR`",
			},
		},
		Action: runTUI,
	}
}

func runTUI(c *cli.Context) error {
	e, err := setup(c, envOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}

	startDir := c.String("dir")
	if startDir == "" {
		startDir, _ = os.Getwd()
	}
	opts := app.Options{
		Orchestrator: e.orchestrator(false),
		Store:        e.st,
		StartDir:     startDir,
	}

	if !c.Bool("no-preview") {
		srv, err := e.previewServer("")
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Str("addr", srv.Addr()).Msg("preview server stopped")
			}
		}()
		defer shutdown(srv)
		opts.Publisher = srv
		opts.PreviewURL = "http://" + srv.Addr()
	}

	return app.Run(c.Context, opts, st)
}

func (e *env) previewServer(addr string) (*preview.Server, error) {
	if addr == "" {
		addr = e.cfg.Preview.Addr
	}
	return preview.NewServer(preview.Options{Addr: addr, CacheSize: e.cfg.Preview.CacheSize})
}

func shutdown(srv *preview.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("preview shutdown")
	}
}
