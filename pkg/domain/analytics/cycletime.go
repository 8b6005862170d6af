package analytics

import (
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// CycleTimeStats summarises In Progress -> Done durations in days.
// Median, P75 and Mean are nil when InsufficientData is set.
type CycleTimeStats struct {
	Median           *float64 `json:"median"`
	P75              *float64 `json:"p75"`
	Mean             *float64 `json:"mean,omitempty"`
	Samples          int      `json:"samples"`
	InsufficientData bool     `json:"insufficient_data"`
}

// DeriveCycleTimeStats measures, per issue, the time from its first
// In Progress transition inside w to the earliest Done transition at or after
// it and no later than w.To. Issues without such a pair contribute nothing.
func DeriveCycleTimeStats(issues []tracker.Issue, w Window) CycleTimeStats {
	samples := make([]float64, 0, len(issues))
	for _, issue := range issues {
		if days, ok := cycleTimeDays(issue, w); ok {
			samples = append(samples, days)
		}
	}

	if len(samples) == 0 {
		return CycleTimeStats{InsufficientData: true}
	}

	sorted := sortedCopy(samples)
	med := median(sorted)
	p75 := nearestRank(sorted, 0.75)
	mean := meanOf(sorted)
	return CycleTimeStats{
		Median:  &med,
		P75:     &p75,
		Mean:    &mean,
		Samples: len(sorted),
	}
}

func cycleTimeDays(issue tracker.Issue, w Window) (float64, bool) {
	var started time.Time
	found := false
	for _, entry := range issue.History {
		if !entry.IsTransitionTo(tracker.StatusInProgress) {
			continue
		}
		at, ok := entry.Time()
		if ok && w.Contains(at) {
			started, found = at, true
			break
		}
	}
	if !found {
		return 0, false
	}

	var finished time.Time
	found = false
	for _, entry := range issue.History {
		if !entry.IsTransitionTo(tracker.StatusDone) {
			continue
		}
		at, ok := entry.Time()
		if !ok || at.Before(started) || at.After(w.To) {
			continue
		}
		if !found || at.Before(finished) {
			finished, found = at, true
		}
	}
	if !found {
		return 0, false
	}

	days := finished.Sub(started).Hours() / 24
	if days < 0 {
		return 0, false
	}
	return days, true
}
