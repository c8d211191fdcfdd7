package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Protocol-Lattice/vibe-code/src/preview"
)

// PreviewCommand returns the preview command
func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Print the composed preview document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the document to `FILE` instead of stdout",
			},
		},
		Action: runPreview,
	}
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the live preview of the saved workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen on `ADDR` (default from preview.addr)",
			},
		},
		Action: runServe,
	}
}

func runPreview(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	html := preview.Compose(st.Tree)

	out := c.String("out")
	if out == "" {
		fmt.Println(html)
		return nil
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	fmt.Printf("💾 Wrote preview to %s\n", out)
	return nil
}

func runServe(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	srv, err := e.previewServer(c.String("addr"))
	if err != nil {
		return err
	}
	rev := srv.Publish(st.Tree)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()
	fmt.Printf("🌐 Preview at http://%s (revision %d). Press ctrl+c to stop.\n", srv.Addr(), rev)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down preview server")
	shutdown(srv)
	return nil
}
