package analytics

import (
	"math"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// DefaultSprintLengthDays is assumed when no sprint span is available.
const DefaultSprintLengthDays = 7.0

// DeliveryEtaEntry projects days to clear a project's open work.
// The ETA fields are nil when the corresponding throughput is zero.
type DeliveryEtaEntry struct {
	ProjectID              string  `json:"project_id"`
	Remaining              int     `json:"remaining"`
	RecentThroughputMedian float64 `json:"recent_throughput_median"`
	RecentThroughputBest   float64 `json:"recent_throughput_best"`
	EtaMedianDays          *int    `json:"eta_median_days"`
	EtaOptimisticDays      *int    `json:"eta_optimistic_days"`
	SprintLengthDays       float64 `json:"sprint_length_days"`
	Samples                int     `json:"samples"`
}

// DeriveDeliveryEtaPerProject returns one entry per distinct project in
// issues, in order of first appearance. Throughput samples are the per-sprint
// Done counts of Completed sprints ending inside w; without such sprints a
// single sample covers w itself.
func DeriveDeliveryEtaPerProject(issues []tracker.Issue, sprints []tracker.Sprint, w Window) []DeliveryEtaEntry {
	projects := make([]string, 0)
	byProject := make(map[string][]tracker.Issue)
	for _, issue := range issues {
		if issue.ProjectID == "" {
			continue
		}
		if _, ok := byProject[issue.ProjectID]; !ok {
			projects = append(projects, issue.ProjectID)
		}
		byProject[issue.ProjectID] = append(byProject[issue.ProjectID], issue)
	}

	windows := sprintWindows(sprints, w)
	sprintLength := DefaultSprintLengthDays
	if len(windows) > 0 {
		spans := make([]float64, 0, len(windows))
		for _, sw := range windows {
			spans = append(spans, sw.Days())
		}
		sprintLength = median(sortedCopy(spans))
	}
	if len(windows) == 0 {
		windows = []Window{w}
	}

	entries := make([]DeliveryEtaEntry, 0, len(projects))
	for _, pid := range projects {
		projectIssues := byProject[pid]

		remaining := 0
		for _, issue := range projectIssues {
			if !issue.Status.IsDone() {
				remaining++
			}
		}

		samples := make([]float64, 0, len(windows))
		for _, sw := range windows {
			samples = append(samples, float64(countCompleted(projectIssues, sw)))
		}
		med := math.Max(0, median(sortedCopy(samples)))
		best := math.Max(0, maxOf(samples))

		entries = append(entries, DeliveryEtaEntry{
			ProjectID:              pid,
			Remaining:              remaining,
			RecentThroughputMedian: med,
			RecentThroughputBest:   best,
			EtaMedianDays:          etaDays(remaining, med, sprintLength),
			EtaOptimisticDays:      etaDays(remaining, best, sprintLength),
			SprintLengthDays:       sprintLength,
			Samples:                len(samples),
		})
	}
	return entries
}

// sprintWindows returns the spans of Completed sprints whose end date lies in w.
// Sprints that do not end after they start are skipped.
func sprintWindows(sprints []tracker.Sprint, w Window) []Window {
	var out []Window
	for _, s := range sprints {
		if s.Status != tracker.SprintCompleted || !w.Contains(s.EndDate) {
			continue
		}
		if !s.EndDate.After(s.StartDate) {
			continue
		}
		out = append(out, Window{From: s.StartDate, To: s.EndDate})
	}
	return out
}

func countCompleted(issues []tracker.Issue, w Window) int {
	n := 0
	for _, issue := range issues {
		if counted, _ := completedIn(issue, w); counted {
			n++
		}
	}
	return n
}

func etaDays(remaining int, throughput, sprintLength float64) *int {
	if throughput <= 0 {
		return nil
	}
	days := int(math.Ceil(float64(remaining) / throughput * sprintLength))
	return &days
}
