package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// Validate performs structural validation of the configuration. Values that
// would otherwise misbehave at first use (a negative frame cap, an
// unparseable ignore pattern) are rejected here.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("todo_file", c.TodoFile, todoFileIsNotDirectory),
		criterio.Run("max_location_frames", c.MaxLocationFrames, nonNegativeFrameLimit),
		c.validateIgnoreFrames(),
	)
}

func nonNegativeFrameLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("must be zero (unlimited) or positive, got %d", limit)
	}
	return nil
}

func todoFileIsNotDirectory(path string) error {
	if path == "" {
		return fmt.Errorf("is required")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // created on first save
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

func (c *Config) validateIgnoreFrames() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.IgnoreFrames {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("ignore_frames[%d]", i), fmt.Errorf("invalid glob pattern %q", pattern))
		}
	}
	return errs.ToError()
}
