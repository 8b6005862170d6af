package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

const computeTimeout = 10 * time.Second

// Metric names accepted by DashboardService.Metric.
const (
	MetricStatus       = "status"
	MetricSprint       = "sprint"
	MetricThroughput   = "throughput"
	MetricWorkload     = "workload"
	MetricVelocity     = "velocity"
	MetricBlockedStale = "blocked-stale"
	MetricWIP          = "wip"
	MetricCycleTime    = "cycle-time"
	MetricDeliveryEta  = "delivery-eta"
)

// MetricNames lists every metric in card order.
var MetricNames = []string{
	MetricStatus, MetricSprint, MetricThroughput, MetricWorkload, MetricVelocity,
	MetricBlockedStale, MetricWIP, MetricCycleTime, MetricDeliveryEta,
}

// ErrUnknownMetric is returned by Metric for names outside MetricNames.
var ErrUnknownMetric = errors.New("unknown metric")

// DashboardPreferences are the stored defaults a query falls back to.
type DashboardPreferences struct {
	ProjectIDs []string
	TeamIDs    []string
	TimeRange  analytics.TimeRange
	Settings   analytics.Settings
}

// PreferencesLoader returns the current stored defaults.
type PreferencesLoader func() (DashboardPreferences, error)

// DashboardQuery overrides the stored preferences for one request. Nil
// fields keep the stored value; an empty non-nil slice clears the filter.
type DashboardQuery struct {
	TimeRange  *analytics.TimeRange
	ProjectIDs []string
	TeamIDs    []string
}

type DashboardService struct {
	repo      tracker.WorkspaceRepository
	prefs     PreferencesLoader
	telemetry *Telemetry
	log       zerolog.Logger
	clock     analytics.Clock
}

func NewDashboardService(repo tracker.WorkspaceRepository, prefs PreferencesLoader, t *Telemetry, logger zerolog.Logger) *DashboardService {
	if prefs == nil {
		prefs = func() (DashboardPreferences, error) {
			return DashboardPreferences{
				TimeRange: analytics.TimeRange{Preset: analytics.Preset7d},
				Settings:  analytics.DefaultSettings(),
			}, nil
		}
	}
	return &DashboardService{repo: repo, prefs: prefs, telemetry: t, log: logger, clock: analytics.SystemClock}
}

// WithClock replaces the clock, for tests and replays.
func (s *DashboardService) WithClock(c analytics.Clock) *DashboardService {
	s.clock = c
	return s
}

// Compute builds the dashboard without recording a view. Used by the live
// refresh loop.
func (s *DashboardService) Compute(ctx context.Context, q DashboardQuery) (analytics.Dashboard, error) {
	t := timeout.New[analytics.Dashboard](timeout.Config{
		DefaultTimeout: computeTimeout,
	})
	return t.Execute(ctx, computeTimeout, func(ctx context.Context) (analytics.Dashboard, error) {
		input, err := s.input(ctx, q)
		if err != nil {
			return analytics.Dashboard{}, err
		}
		return analytics.BuildDashboard(input, s.clock), nil
	})
}

// Dashboard builds the dashboard and records a view.
func (s *DashboardService) Dashboard(ctx context.Context, q DashboardQuery) (analytics.Dashboard, error) {
	d, err := s.Compute(ctx, q)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	s.telemetry.Track(telemetry.DashboardViewOpened, map[string]any{
		"time_range":  string(d.TimeRange.Preset),
		"project_ids": d.ProjectIDs,
		"team_ids":    d.TeamIDs,
	})
	if q.TimeRange != nil {
		s.telemetry.Track(telemetry.DashboardTimeRangeChanged, map[string]any{
			"to": string(q.TimeRange.Preset),
		})
	}
	return d, nil
}

// Metric returns one card of the dashboard by name.
func (s *DashboardService) Metric(ctx context.Context, name string, q DashboardQuery) (any, error) {
	if !isMetric(name) {
		return nil, fmt.Errorf("%w %q", ErrUnknownMetric, name)
	}
	d, err := s.Compute(ctx, q)
	if err != nil {
		return nil, err
	}

	switch name {
	case MetricStatus:
		return d.Status, nil
	case MetricSprint:
		return d.ActiveSprint, nil
	case MetricThroughput:
		return d.Throughput, nil
	case MetricWorkload:
		return d.Workload, nil
	case MetricVelocity:
		return d.Velocity, nil
	case MetricBlockedStale:
		s.telemetry.Track(telemetry.BlockedStaleCardViewed, map[string]any{
			"blocked": d.BlockedStale.TotalBlocked,
			"stale":   d.BlockedStale.TotalStale,
		})
		return d.BlockedStale, nil
	case MetricWIP:
		s.telemetry.Track(telemetry.WIPPressureCardViewed, map[string]any{
			"level": string(d.WipPressure.Level),
		})
		return d.WipPressure, nil
	case MetricCycleTime:
		return d.CycleTime, nil
	default:
		return d.DeliveryEta, nil
	}
}

// Throughput returns the throughput card.
func (s *DashboardService) Throughput(ctx context.Context, q DashboardQuery) (analytics.ThroughputResult, error) {
	d, err := s.Compute(ctx, q)
	return d.Throughput, err
}

// CycleTime returns cycle-time statistics.
func (s *DashboardService) CycleTime(ctx context.Context, q DashboardQuery) (analytics.CycleTimeStats, error) {
	d, err := s.Compute(ctx, q)
	return d.CycleTime, err
}

// DeliveryEta returns per-project ETAs.
func (s *DashboardService) DeliveryEta(ctx context.Context, q DashboardQuery) ([]analytics.DeliveryEtaEntry, error) {
	d, err := s.Compute(ctx, q)
	return d.DeliveryEta, err
}

// WipPressure returns the WIP card.
func (s *DashboardService) WipPressure(ctx context.Context, q DashboardQuery) (analytics.WipPressureResult, error) {
	d, err := s.Compute(ctx, q)
	return d.WipPressure, err
}

func (s *DashboardService) input(ctx context.Context, q DashboardQuery) (analytics.DashboardInput, error) {
	w, err := s.repo.LoadWorkspace(ctx)
	if err != nil {
		return analytics.DashboardInput{}, err
	}
	prefs, err := s.prefs()
	if err != nil {
		return analytics.DashboardInput{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	in := analytics.DashboardInput{
		Issues:     w.Issues,
		Sprints:    w.Sprints,
		ProjectIDs: prefs.ProjectIDs,
		TeamIDs:    prefs.TeamIDs,
		TimeRange:  prefs.TimeRange,
		Settings:   prefs.Settings,
	}
	if q.TimeRange != nil {
		in.TimeRange = *q.TimeRange
	}
	if q.ProjectIDs != nil {
		in.ProjectIDs = q.ProjectIDs
	}
	if q.TeamIDs != nil {
		in.TeamIDs = q.TeamIDs
	}
	return in, nil
}

func isMetric(name string) bool {
	for _, m := range MetricNames {
		if m == name {
			return true
		}
	}
	return false
}
