package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	version = "0.1.0"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "vibe",
		Usage:   "Describe a web project in chat and let the assistant write it",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default ./vibe.toml, then ~/.vibe-code/vibe.toml)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Workspace storage `BACKEND`: file, sqlite or memory",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log `LEVEL`: trace, debug, info, warn or error",
			},
		},
		DefaultCommand: "tui",
		Commands: []*cli.Command{
			TUICommand(),
			ChatCommand(),
			PreviewCommand(),
			ServeCommand(),
			UploadCommand(),
			TemplateCommand(),
			TreeCommand(),
			KnowledgeCommand(),
			SettingsCommand(),
			ConfigCommand(),
			MCPCommand(),
		},
	}
}
