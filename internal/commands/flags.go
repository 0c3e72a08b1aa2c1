package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/nplusone/internal/core/config"
	"github.com/colonyops/nplusone/internal/nplusone"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	TodoFile   string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// App holds the coordinator and reconciliation service
	App *nplusone.App
}

// DefaultConfigPath returns the default config file path. A repo-local
// .nplusone.yaml wins; otherwise XDG_CONFIG_HOME is used.
func DefaultConfigPath() string {
	const local = ".nplusone.yaml"
	if _, err := os.Stat(local); err == nil {
		return local
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "nplusone", "config.yaml")
}
