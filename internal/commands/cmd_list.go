package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/nplusone/internal/core/styles"
	"github.com/colonyops/nplusone/internal/core/todo"
	"github.com/colonyops/nplusone/pkg/iojson"
)

// ListCmd implements the nplusone list command.
type ListCmd struct {
	flags *Flags

	jsonOutput bool
}

// NewListCmd creates a new list command.
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the list command to the application.
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "Show all recorded TODO entries",
		UsageText: "nplusone list [--json]",
		Description: `Prints every recorded entry with its fingerprint, normalized query,
and observed locations.

Use --json for machine-readable output as JSON lines.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output entries as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

// entryInfo is the JSON-lines shape of one entry.
type entryInfo struct {
	Fingerprint string         `json:"fingerprint"`
	Query       string         `json:"query"`
	Locations   []locationInfo `json:"locations"`
	CreatedAt   string         `json:"created_at"`
}

type locationInfo struct {
	Location     string `json:"location"`
	TestLocation string `json:"test_location,omitempty"`
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.App.Store.Entries()
	if err != nil {
		return fmt.Errorf("load todo file: %w", err)
	}

	out := c.Root().Writer

	if len(entries) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintln(os.Stderr, "No entries recorded")
		}
		return nil
	}

	if cmd.jsonOutput {
		for _, e := range entries {
			if err := iojson.WriteLine(out, toEntryInfo(e)); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(out)
		}

		fmt.Fprintf(out, "%s  %s\n",
			styles.TextAccentStyle.Render(e.Fingerprint),
			styles.TextForegroundStyle.Render(e.Query),
		)
		for _, loc := range e.Locations {
			line := "  " + loc.Location
			if loc.TestLocation != "" {
				line += " " + styles.TextMutedStyle.Render("("+loc.TestLocation+")")
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, styles.TextMutedStyle.Render("  created "+e.CreatedAt.Format("2006-01-02")))
	}

	return nil
}

func toEntryInfo(e todo.Entry) entryInfo {
	info := entryInfo{
		Fingerprint: e.Fingerprint,
		Query:       e.Query,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, loc := range e.Locations {
		info.Locations = append(info.Locations, locationInfo{
			Location:     loc.Location,
			TestLocation: loc.TestLocation,
		})
	}
	return info
}
