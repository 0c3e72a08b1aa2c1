package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/nplusone/internal/commands"
	"github.com/colonyops/nplusone/internal/core/config"
	"github.com/colonyops/nplusone/internal/nplusone"
	"github.com/colonyops/nplusone/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "nplusone",
		Usage:     "Track and suppress known N+1 query occurrences",
		UsageText: "nplusone [global options] command [command options]",
		Description: `nplusone keeps a persisted, version-controlled TODO file of accepted
N+1 query occurrences. Detections replayed from a test run are matched
against the file: known occurrences are suppressed, new ones recorded,
and fixed ones pruned once their owning test runs clean.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("NPLUSONE_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("NPLUSONE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("NPLUSONE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "todo-file",
				Usage:       "path to the TODO entry file (overrides config)",
				Sources:     cli.EnvVars("NPLUSONE_TODO_FILE"),
				Destination: &flags.TodoFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			if flags.TodoFile != "" {
				cfg.TodoFile = flags.TodoFile
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("invalid config: %w", err)
				}
			}

			flags.Config = cfg
			flags.App = nplusone.NewApp(cfg, log.Logger)

			return ctx, nil
		},
	}

	app = commands.NewGenerateCmd(flags).Register(app)
	app = commands.NewUpdateCmd(flags).Register(app)
	app = commands.NewListCmd(flags).Register(app)
	app = commands.NewCleanCmd(flags).Register(app)

	err := app.Run(ctx, os.Args)
	if logCloser != nil {
		logCloser()
	}
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
