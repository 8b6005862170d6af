// Package telemetry defines usage events emitted by the dashboard surfaces.
package telemetry

import "time"

// Event names.
const (
	DashboardViewOpened       = "dashboard_view_opened"
	DashboardTimeRangeChanged = "dashboard_time_range_changed"
	WIPThresholdChanged       = "wip_threshold_changed"
	BlockedStaleCardViewed    = "blocked_stale_card_viewed"
	WIPPressureCardViewed     = "wip_pressure_card_viewed"
	IssueStatusChanged        = "issue_status_changed"
	SprintCompleted           = "sprint_completed"
)

// Event is a single recorded usage event.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Store persists telemetry events.
type Store interface {
	Append(e *Event) error
	LoadAll() ([]*Event, error)
}
