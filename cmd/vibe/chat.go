package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	app "github.com/Protocol-Lattice/vibe-code/src"
)

// ChatCommand returns the chat command
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Send one message, apply the reply to the workspace and print what changed",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "color",
				Usage: "Color the diffs",
				Value: true,
			},
		},
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return fmt.Errorf("a message is required")
	}

	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Println("🚀 Sending to the assistant...")
	_, err = app.RunHeadless(c.Context, e.orchestrator(c.Bool("color")), e.st, nil, message, os.Stdout)
	return err
}
