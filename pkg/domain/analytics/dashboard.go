package analytics

import (
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// Settings are the tunable thresholds of a dashboard.
type Settings struct {
	WIPThreshold  int         `json:"wip_threshold"`
	StaleAgeDays  int         `json:"stale_age_days"`
	WorkloadTopN  int         `json:"workload_top_n"`
	VelocityLimit int         `json:"velocity_limit"`
	BlockedMode   BlockedMode `json:"blocked_mode"`
}

// DefaultSettings returns the stock thresholds.
func DefaultSettings() Settings {
	return Settings{
		WIPThreshold:  DefaultWIPThreshold,
		StaleAgeDays:  DefaultStaleAgeDays,
		WorkloadTopN:  DefaultTopN,
		VelocityLimit: DefaultTopN,
		BlockedMode:   BlockedEver,
	}
}

// DashboardInput is everything BuildDashboard reads.
type DashboardInput struct {
	Issues     []tracker.Issue
	Sprints    []tracker.Sprint
	ProjectIDs []string
	TeamIDs    []string
	TimeRange  TimeRange
	Settings   Settings
}

// Dashboard bundles every derived metric for one scope and window.
type Dashboard struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	TimeRange    TimeRange            `json:"time_range"`
	Window       Window               `json:"window"`
	ProjectIDs   []string             `json:"project_ids,omitempty"`
	TeamIDs      []string             `json:"team_ids,omitempty"`
	Status       StatusBreakdown      `json:"status"`
	ActiveSprint ActiveSprintProgress `json:"active_sprint"`
	Throughput   ThroughputResult     `json:"throughput"`
	Workload     []WorkloadEntry      `json:"workload"`
	Velocity     []VelocityEntry      `json:"velocity"`
	BlockedStale BlockedStaleResult   `json:"blocked_stale"`
	WipPressure  WipPressureResult    `json:"wip_pressure"`
	CycleTime    CycleTimeStats       `json:"cycle_time"`
	DeliveryEta  []DeliveryEtaEntry   `json:"delivery_eta"`
}

// BuildDashboard scopes the issues and runs every derivation against the
// same clock reading. Sprints are not scoped.
func BuildDashboard(in DashboardInput, clock Clock) Dashboard {
	at := now(clock)
	pinned := FixedClock(at)

	issues := ApplyScopeFilters(in.Issues, in.ProjectIDs, in.TeamIDs)
	window := ResolveTimeRange(in.TimeRange, pinned)
	s := in.Settings

	return Dashboard{
		GeneratedAt:  at,
		TimeRange:    in.TimeRange,
		Window:       window,
		ProjectIDs:   in.ProjectIDs,
		TeamIDs:      in.TeamIDs,
		Status:       DeriveStatusBreakdown(issues),
		ActiveSprint: DeriveActiveSprintProgress(issues, in.Sprints),
		Throughput:   DeriveThroughput(issues, window),
		Workload:     DeriveWorkloadByAssignee(issues, s.WorkloadTopN),
		Velocity:     DeriveVelocityBySprint(issues, in.Sprints, s.VelocityLimit),
		BlockedStale: DeriveBlockedAndStaleWithMode(issues, s.StaleAgeDays, pinned, s.BlockedMode),
		WipPressure:  DeriveWipPressure(issues, s.WIPThreshold),
		CycleTime:    DeriveCycleTimeStats(issues, window),
		DeliveryEta:  DeriveDeliveryEtaPerProject(issues, in.Sprints, window),
	}
}
