// Package config handles configuration loading and validation for nplusone.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxLocationFrames is the frame cap applied to cleaned call stacks
// when the config file does not set one.
const DefaultMaxLocationFrames = 5

// DefaultTodoFile is the repo-relative path of the persisted entry file.
const DefaultTodoFile = ".nplusone-todo.yaml"

// Config holds the application configuration.
type Config struct {
	// TodoFile is the path of the persisted TODO entry file.
	TodoFile string `yaml:"todo_file"`

	// MaxLocationFrames caps how many call-stack frames are kept per
	// location after filtering. Zero means unlimited. Negative values are
	// rejected at load time.
	MaxLocationFrames int `yaml:"max_location_frames"`

	// IgnoreFrames holds doublestar glob patterns; frames matching any
	// pattern are dropped by the default location filter.
	IgnoreFrames []string `yaml:"ignore_frames"`

	// SkipPrune disables entry pruning during update flushes.
	SkipPrune bool `yaml:"skip_prune"`

	// LocationFilter overrides the default frame filter when set. It is
	// programmatic configuration only and never comes from the config file.
	LocationFilter func([]string) []string `yaml:"-"`

	// maxFramesSet records whether the config file carried an explicit
	// max_location_frames, so an explicit zero survives defaulting.
	maxFramesSet bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TodoFile:          DefaultTodoFile,
		MaxLocationFrames: DefaultMaxLocationFrames,
	}
}

// UnmarshalYAML tracks whether max_location_frames was explicitly present so
// "0" (unlimited) can be distinguished from "unset" (default 5).
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type raw Config
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "max_location_frames" {
			r.maxFramesSet = true
			break
		}
	}

	*c = Config(r)
	return nil
}

// Load reads configuration from the given path. If configPath is empty or the
// file does not exist, defaults are returned. The result is validated; bad
// values fail here rather than at first use.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			loaded := Config{}
			if err := yaml.Unmarshal(data, &loaded); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			cfg.merge(loaded)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// merge overlays values read from a config file onto the defaults.
func (c *Config) merge(loaded Config) {
	if loaded.TodoFile != "" {
		c.TodoFile = loaded.TodoFile
	}
	if loaded.maxFramesSet {
		c.MaxLocationFrames = loaded.MaxLocationFrames
	}
	if len(loaded.IgnoreFrames) > 0 {
		c.IgnoreFrames = loaded.IgnoreFrames
	}
	if loaded.SkipPrune {
		c.SkipPrune = loaded.SkipPrune
	}
}
