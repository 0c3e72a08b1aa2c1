package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/nplusone/internal/core/detect"
	"github.com/colonyops/nplusone/internal/core/styles"
	"github.com/colonyops/nplusone/pkg/iojson"
)

// UpdateCmd implements the nplusone update command.
type UpdateCmd struct {
	flags  *Flags
	reader iojson.LinesReader[detect.ReportLine]

	noPrune bool
}

// NewUpdateCmd creates a new update command.
func NewUpdateCmd(flags *Flags) *UpdateCmd {
	return &UpdateCmd{flags: flags}
}

// Register adds the update command to the application.
func (cmd *UpdateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "update",
		Usage:     "Merge detections into the TODO file and prune resolved entries",
		UsageText: "nplusone update [--input <report>] [--no-prune]",
		Description: `Reads a detections report, adds every new occurrence to the TODO file,
and removes entries whose owning test ran without reproducing them.

Entries belonging to tests that did not run are always kept, so partial
test runs are safe.

Examples:
  nplusone update --input detections.jsonl
  cat detections.jsonl | nplusone update
  NPLUSONE_NO_PRUNE=1 nplusone update --input detections.jsonl`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.BoolFlag{
				Name:        "no-prune",
				Usage:       "only add new entries, never remove resolved ones",
				Sources:     cli.EnvVars("NPLUSONE_NO_PRUNE"),
				Destination: &cmd.noPrune,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *UpdateCmd) run(ctx context.Context, c *cli.Command) error {
	lines, err := cmd.reader.Read()
	if err != nil {
		return fmt.Errorf("read detections: %w", err)
	}
	cmd.flags.App.Coordinator.IngestReport(lines)

	clean := !cmd.noPrune && !cmd.flags.Config.SkipPrune

	res, err := cmd.flags.App.Service.Flush(ctx, clean)
	if err != nil {
		return err
	}

	if res.Changed() {
		fmt.Fprintln(c.Root().Writer, styles.TextSuccessStyle.Render(res.Summary()))
	}
	return nil
}
