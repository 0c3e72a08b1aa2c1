package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/nplusone/internal/core/detect"
	"github.com/colonyops/nplusone/internal/core/styles"
	"github.com/colonyops/nplusone/pkg/iojson"
)

// CleanCmd implements the nplusone clean command.
type CleanCmd struct {
	flags  *Flags
	reader iojson.LinesReader[detect.ReportLine]
}

// NewCleanCmd creates a new clean command.
func NewCleanCmd(flags *Flags) *CleanCmd {
	return &CleanCmd{flags: flags}
}

// Register adds the clean command to the application.
func (cmd *CleanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "clean",
		Usage:     "Prune resolved entries without adding new ones",
		UsageText: "nplusone clean [--input <report>]",
		Description: `Removes entries whose owning test ran without reproducing them,
according to the detections report. Nothing is added to the TODO file.

Examples:
  nplusone clean --input detections.jsonl`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CleanCmd) run(ctx context.Context, c *cli.Command) error {
	lines, err := cmd.reader.Read()
	if err != nil {
		return fmt.Errorf("read detections: %w", err)
	}
	cmd.flags.App.Coordinator.IngestReport(lines)

	res, err := cmd.flags.App.Service.CleanOnly(ctx)
	if err != nil {
		return err
	}

	if res.Changed() {
		fmt.Fprintln(c.Root().Writer, styles.TextSuccessStyle.Render(res.Summary()))
	}
	return nil
}
