// Package dashboard serves the derived metrics over HTTP and pushes live
// updates to websocket clients.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

const requestTimeout = 30 * time.Second

// Provider computes dashboards. Satisfied by *application.DashboardService.
type Provider interface {
	Compute(ctx context.Context, q application.DashboardQuery) (analytics.Dashboard, error)
	Dashboard(ctx context.Context, q application.DashboardQuery) (analytics.Dashboard, error)
	Metric(ctx context.Context, name string, q application.DashboardQuery) (any, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	addr     string
	provider Provider
	hub      *Hub
	log      zerolog.Logger
	router   chi.Router
	server   *http.Server
}

// NewServer wires the routes. Extra handlers can be added with Handle before
// Start is called.
func NewServer(addr string, provider Provider, logger zerolog.Logger) *Server {
	s := &Server{
		addr:     addr,
		provider: provider,
		hub:      NewHub(),
		log:      logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// the live socket outlives any request timeout
		r.Get("/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/metrics", s.handleMetricNames)
			r.Get("/metrics/{name}", s.handleMetric)
		})
	})

	s.router = r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the broadcaster feeding /api/live.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handle mounts an additional handler.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	s.log.Info().Str("addr", s.addr).Msg("dashboard server starting")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and disconnects live clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Refresh recomputes the dashboard with stored preferences and pushes it to
// every live client.
func (s *Server) Refresh(ctx context.Context) error {
	if s.hub.Clients() == 0 {
		return nil
	}
	d, err := s.provider.Compute(ctx, application.DashboardQuery{})
	if err != nil {
		return err
	}
	return s.hub.Broadcast(d)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"live_clients": s.hub.Clients(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.provider.Dashboard(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMetricNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"metrics": application.MetricNames})
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := chi.URLParam(r, "name")
	v, err := s.provider.Metric(r.Context(), name, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metric": name,
		"data":   v,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("dashboard request failed")
	}
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func statusFor(err error) int {
	var qerr *QueryError
	switch {
	case errors.As(err, &qerr), errors.Is(err, tracker.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrUnknownMetric):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrWorkspaceNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
