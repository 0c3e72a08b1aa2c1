package nplusone

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/nplusone/internal/core/config"
	"github.com/colonyops/nplusone/internal/core/detect"
	"github.com/colonyops/nplusone/internal/core/fingerprint"
	"github.com/colonyops/nplusone/internal/store/yamlfile"
)

// App bundles the long-lived collaborators commands operate on. One instance
// exists per process; the CLI wires it in the Before hook, an embedding
// application constructs it at boot.
type App struct {
	Coordinator *detect.Coordinator
	Service     *Service
	Store       *yamlfile.TodoStore
	Config      *config.Config
}

// NewApp wires the coordinator, store, and reconciliation service for the
// given configuration.
func NewApp(cfg *config.Config, log zerolog.Logger) *App {
	hasher := fingerprint.NewHasher(cfg, log)
	store := yamlfile.New(cfg.TodoFile)
	coord := detect.NewCoordinator(hasher, store, log)

	return &App{
		Coordinator: coord,
		Service:     NewService(coord, hasher, cfg.TodoFile, log),
		Store:       store,
		Config:      cfg,
	}
}
