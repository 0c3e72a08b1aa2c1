package iojson

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// LinesReader reads newline-delimited JSON records from a file flag or stdin.
type LinesReader[T any] struct {
	fileFlagValue string
}

// Flag returns the CLI flag that selects the input file.
func (lr *LinesReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "input",
		Aliases:     []string{"i"},
		Usage:       "path to JSON-lines input (reads from stdin if not provided)",
		Destination: &lr.fileFlagValue,
	}
}

// Read decodes all records from the selected source. When no file is given
// and stdin is a terminal, it fails rather than blocking on user input.
func (lr *LinesReader[T]) Read() ([]T, error) {
	var reader io.Reader

	if lr.fileFlagValue != "" {
		f, err := os.Open(lr.fileFlagValue)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("no input provided (stdin is a terminal); use --input or pipe JSON lines")
		}
		reader = os.Stdin
	}

	return DecodeLines[T](reader)
}
