package wiring

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/flowcraft/pkg/application"
)

// AppServices exposes the application layer wired to a workspace root.
type AppServices struct {
	Workspace *Workspace
	Issues    *application.IssueService
	Sprints   *application.SprintService
	Catalog   *application.CatalogService
	Dashboard *application.DashboardService
	Webhooks  *webhook.Notifier
}

// BuildAppServices constructs the services for a repo root. Preferences are
// re-read on every dashboard computation so edits to preferences.yaml apply
// without a restart.
func BuildAppServices(root string, logger zerolog.Logger) *AppServices {
	ws := NewWorkspace(root, logger)
	notifier := newWebhookNotifier(ws, logger)
	if notifier != nil {
		ws.Telemetry.AddSink(notifier)
	}
	return &AppServices{
		Workspace: ws,
		Webhooks:  notifier,
		Issues:    application.NewIssueService(ws.Repo, ws.Telemetry, logger),
		Sprints:   application.NewSprintService(ws.Repo, ws.Telemetry, logger),
		Catalog:   application.NewCatalogService(ws.Repo),
		Dashboard: application.NewDashboardService(ws.Repo, PreferencesLoader(root), ws.Telemetry, logger),
	}
}

// PreferencesLoader adapts the config file to the dashboard service.
func PreferencesLoader(root string) application.PreferencesLoader {
	return func() (application.DashboardPreferences, error) {
		prefs, err := config.LoadPreferences(root)
		if err != nil {
			return application.DashboardPreferences{}, err
		}
		return application.DashboardPreferences{
			ProjectIDs: prefs.SelectedProjectIDs,
			TeamIDs:    prefs.SelectedTeamIDs,
			TimeRange:  prefs.TimeRange,
			Settings:   prefs.Settings(),
		}, nil
	}
}

// newWebhookNotifier returns nil when no webhooks are configured. Unreadable
// preferences disable webhooks; the dashboard reports the error itself.
func newWebhookNotifier(ws *Workspace, logger zerolog.Logger) *webhook.Notifier {
	prefs, err := config.LoadPreferences(ws.Root)
	if err != nil || len(prefs.Webhooks) == 0 {
		return nil
	}
	deadLetters := webhook.NewDeadLetterStore(filepath.Join(ws.Repo.Dir(), webhook.DeadLetterFile))
	return webhook.NewNotifier(prefs.Webhooks, deadLetters, logger.With().Str("component", "webhook").Logger())
}

// Close waits for pending webhook deliveries.
func (s *AppServices) Close(ctx context.Context) error {
	if s.Webhooks == nil {
		return nil
	}
	return s.Webhooks.Flush(ctx)
}
