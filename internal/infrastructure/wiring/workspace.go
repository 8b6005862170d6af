package wiring

import (
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/storage"
)

// Workspace bundles the storage dependencies of one project root.
type Workspace struct {
	Root      string
	Repo      *storage.FilesystemRepository
	Events    *storage.FileTelemetryStore
	Telemetry *application.Telemetry
}

func NewWorkspace(root string, logger zerolog.Logger) *Workspace {
	repo := storage.NewFilesystemRepository(root)
	events := storage.NewFileTelemetryStore(repo.Dir())
	return &Workspace{
		Root:      root,
		Repo:      repo,
		Events:    events,
		Telemetry: application.NewTelemetry(events, logger.With().Str("component", "telemetry").Logger()),
	}
}
