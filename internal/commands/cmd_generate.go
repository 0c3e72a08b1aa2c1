package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/nplusone/internal/core/detect"
	"github.com/colonyops/nplusone/internal/core/styles"
	"github.com/colonyops/nplusone/pkg/iojson"
)

// GenerateCmd implements the nplusone generate command.
type GenerateCmd struct {
	flags  *Flags
	reader iojson.LinesReader[detect.ReportLine]

	force bool
}

// NewGenerateCmd creates a new generate command.
func NewGenerateCmd(flags *Flags) *GenerateCmd {
	return &GenerateCmd{flags: flags}
}

// Register adds the generate command to the application.
func (cmd *GenerateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "generate",
		Usage:     "Rebuild the TODO file from scratch from a detections report",
		UsageText: "nplusone generate [--input <report>] [--force]",
		Description: `Discards every existing entry and rewrites the TODO file from the
detections in the report. Asks for confirmation before overwriting an
existing file unless --force is given.

Examples:
  nplusone generate --input detections.jsonl
  nplusone generate --input detections.jsonl --force`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite an existing TODO file without asking",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *GenerateCmd) run(ctx context.Context, c *cli.Command) error {
	if err := cmd.confirmOverwrite(); err != nil {
		return err
	}

	lines, err := cmd.reader.Read()
	if err != nil {
		return fmt.Errorf("read detections: %w", err)
	}
	cmd.flags.App.Coordinator.IngestReport(lines)

	res, err := cmd.flags.App.Service.Generate(ctx)
	if err != nil {
		return err
	}

	if res.Changed() {
		fmt.Fprintln(c.Root().Writer, styles.TextSuccessStyle.Render(res.Summary()))
	}
	return nil
}

// confirmOverwrite guards against clobbering an existing TODO file. With no
// terminal to ask on, --force is required.
func (cmd *GenerateCmd) confirmOverwrite() error {
	if cmd.force {
		return nil
	}

	path := cmd.flags.Config.TodoFile
	if _, err := os.Stat(path); err != nil {
		return nil // nothing to overwrite
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("todo file exists at %s; use --force to overwrite", path)
	}

	var overwrite bool
	err := huh.NewConfirm().
		Title("TODO file already exists").
		Description(path + "\nRebuild it from scratch? All existing entries are discarded.").
		Value(&overwrite).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("generate cancelled")
		}
		return err
	}
	if !overwrite {
		return fmt.Errorf("generate cancelled")
	}
	return nil
}
