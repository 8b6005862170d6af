package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/schedule"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/sse"
	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/watch"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
	"github.com/felixgeelhaar/flowcraft/pkg/infrastructure/dashboard"
	"github.com/felixgeelhaar/flowcraft/pkg/storage"
)

var (
	serveAddr     string
	serveSchedule string
	serveNoWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API with live updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		repo := s.services.Workspace.Repo
		if !repo.IsInitialized() {
			return MapError(fmt.Errorf("serve: %w", tracker.ErrWorkspaceNotInitialized))
		}

		prefs, err := config.LoadPreferences(s.root)
		if err != nil {
			return MapError(fmt.Errorf("load preferences: %w", err))
		}
		addr := prefs.ServeAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		spec := prefs.RefreshSchedule
		if serveSchedule != "" {
			spec = serveSchedule
		}

		server := dashboard.NewServer(addr, s.services.Dashboard, s.log)
		server.Handle("/api/events", sse.NewHandler(server.Hub()))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		refresh := func(ctx context.Context) {
			if err := server.Refresh(ctx); err != nil {
				s.log.Warn().Err(err).Msg("dashboard refresh failed")
			}
		}

		if !serveNoWatch {
			watcher, err := watch.NewFSWatcher(repo.Dir(),
				[]string{storage.WorkspaceFile, storage.PreferencesFile},
				watch.DefaultDebounce,
				func(watch.Change) { refresh(ctx) },
				s.log)
			if err != nil {
				return fmt.Errorf("watch workspace: %w", err)
			}
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					s.log.Error().Err(err).Msg("workspace watcher stopped")
				}
			}()
		}

		refresher, err := schedule.NewRefresher(spec, server.Refresh, s.log)
		if err != nil {
			return NewCLIError(fmt.Sprintf("invalid refresh schedule %q", spec), "Use a cron spec or '@every 1m'", err)
		}
		refresher.Start()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		fmt.Fprintf(out(cmd), "Serving dashboard on http://%s\n", addr)
		fmt.Fprintln(out(cmd), "Endpoints:")
		fmt.Fprintln(out(cmd), "  GET /api/dashboard")
		fmt.Fprintln(out(cmd), "  GET /api/metrics/{name}")
		fmt.Fprintln(out(cmd), "  GET /api/live    (websocket)")
		fmt.Fprintln(out(cmd), "  GET /api/events  (server-sent events)")
		fmt.Fprintln(out(cmd), "\nPress Ctrl+C to stop")

		select {
		case err = <-errCh:
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		refresher.Stop(shutdownCtx)
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from preferences, "+config.DefaultServeAddr+")")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "Refresh schedule for live clients (default from preferences)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not refresh live clients on workspace file changes")
	RootCmd.AddCommand(serveCmd)
}
