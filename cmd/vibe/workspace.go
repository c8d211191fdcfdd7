package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// UploadCommand returns the upload command
func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Replace the workspace project with the files of a local folder",
		ArgsUsage: "<dir>",
		Action:    runUpload,
	}
}

// TemplateCommand returns the template command
func TemplateCommand() *cli.Command {
	return &cli.Command{
		Name:   "template",
		Usage:  "Replace the workspace project with the starter template",
		Action: runTemplate,
	}
}

// TreeCommand returns the tree command
func TreeCommand() *cli.Command {
	return &cli.Command{
		Name:   "tree",
		Usage:  "Print the project tree",
		Action: runTree,
	}
}

func runUpload(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("a folder is required")
	}

	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	tree, err := project.IngestDir(c.Context, dir)
	tooLarge := errors.Is(err, project.ErrUploadTooLarge)
	if err != nil && !tooLarge {
		return fmt.Errorf("failed to upload %s: %w", dir, err)
	}

	next := st.ReplaceTree(tree)
	if s, ok := next.SelectFile("index.html"); ok {
		next = s
	}
	if err := e.save(c.Context, next); err != nil {
		return err
	}

	files, size := project.Count(tree)
	fmt.Printf("📁 Uploaded %d files (%s) from %s\n", files, project.HumanSize(size), dir)
	if tooLarge {
		fmt.Println("⚠️ " + project.UploadWarning)
	}
	return nil
}

func runTemplate(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	if err := e.save(c.Context, st.LoadTemplate()); err != nil {
		return err
	}
	fmt.Println("✨ Loaded the starter template")
	return nil
}

func runTree(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	if len(st.Tree) == 0 {
		fmt.Println("(empty project)")
		return nil
	}
	fmt.Print(project.Render(st.Tree))
	if st.ActiveFile != "" {
		fmt.Printf("\nActive file: %s\n", st.ActiveFile)
	}
	return nil
}

// KnowledgeCommand returns the knowledge command
func KnowledgeCommand() *cli.Command {
	return &cli.Command{
		Name:  "knowledge",
		Usage: "Manage the reference documents sent with every request",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a project file as a reference document",
				ArgsUsage: "<path>",
				Action:    runKnowledgeAdd,
			},
			{
				Name:   "clear",
				Usage:  "Remove every reference document",
				Action: runKnowledgeClear,
			},
			{
				Name:   "list",
				Usage:  "List the reference documents",
				Action: runKnowledgeList,
			},
		},
	}
}

func runKnowledgeAdd(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a project file path is required")
	}

	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	next, added := st.AddReference(path, time.Now())
	if !added {
		if st.HasReference(path) {
			fmt.Printf("ℹ️ %s is already in the knowledge base\n", path)
			return nil
		}
		return fmt.Errorf("no file %q in the project", path)
	}
	if err := e.save(c.Context, next); err != nil {
		return err
	}
	fmt.Printf("📚 Added %s to the knowledge base\n", path)
	return nil
}

func runKnowledgeClear(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	n := len(st.Knowledge)
	if err := e.save(c.Context, st.ClearKnowledge()); err != nil {
		return err
	}
	fmt.Printf("🧹 Removed %d documents\n", n)
	return nil
}

func runKnowledgeList(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	if len(st.Knowledge) == 0 {
		fmt.Println("(knowledge base is empty)")
		return nil
	}
	for _, d := range st.Knowledge {
		added := time.UnixMilli(d.CreatedAt).Format(time.DateTime)
		fmt.Printf("%s\t%s\t%s\n", d.ID, project.HumanSize(int64(len(d.Content))), added)
	}
	return nil
}

// SettingsCommand returns the settings command
func SettingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the provider, model and system prompt",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current settings",
				Action: runSettingsShow,
			},
			{
				Name:  "set",
				Usage: "Change one or more settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Usage: "Provider `ID`: gemini, langchain, lattice or fake"},
					&cli.StringFlag{Name: "model", Usage: "Model `ID`"},
					&cli.StringFlag{Name: "system-prompt", Usage: "System prompt `TEXT`; empty restores the default"},
				},
				Action: runSettingsSet,
			},
		},
	}
}

func runSettingsShow(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	printSettings(st.Settings)
	return nil
}

func runSettingsSet(c *cli.Context) error {
	e, err := setup(c, envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.load(c.Context)
	if err != nil {
		return err
	}
	s := st.Settings
	if c.IsSet("provider") {
		s.Provider = c.String("provider")
	}
	if c.IsSet("model") {
		s.Model = c.String("model")
	}
	if c.IsSet("system-prompt") {
		s.SystemPrompt = c.String("system-prompt")
	}
	next := st.WithSettings(s)
	if err := e.save(c.Context, next); err != nil {
		return err
	}
	printSettings(next.Settings)
	return nil
}

func printSettings(s workspace.Settings) {
	prompt := "default"
	if s.SystemPrompt != workspace.DefaultSystemPrompt {
		prompt = s.SystemPrompt
	}
	fmt.Printf("Provider:      %s\n", s.Provider)
	fmt.Printf("Model:         %s\n", s.Model)
	fmt.Printf("System prompt: %s\n", prompt)
}
