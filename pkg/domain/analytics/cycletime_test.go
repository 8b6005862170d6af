package analytics_test

import (
	"testing"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

func cycleIssue(started, finished string) tracker.Issue {
	return tracker.Issue{
		Status: tracker.StatusDone,
		History: []tracker.HistoryEntry{
			statusEntry(tracker.StatusInProgress, started),
			statusEntry(tracker.StatusDone, finished),
		},
	}
}

func TestDeriveCycleTimeStats(t *testing.T) {
	w := customWindow(t, "2025-01-01T00:00:00Z", "2025-01-10T00:00:00Z")

	t.Run("median and p75", func(t *testing.T) {
		issues := []tracker.Issue{
			cycleIssue("2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z"),
			cycleIssue("2025-01-02T00:00:00Z", "2025-01-05T00:00:00Z"),
			cycleIssue("2025-01-04T00:00:00Z", "2025-01-06T00:00:00Z"),
		}
		got := analytics.DeriveCycleTimeStats(issues, w)
		if got.InsufficientData {
			t.Fatal("expected data")
		}
		if *got.Median != 2 || *got.P75 != 3 || *got.Mean != 2 {
			t.Errorf("median=%v p75=%v mean=%v, want 2 3 2", *got.Median, *got.P75, *got.Mean)
		}
		if got.Samples != 3 {
			t.Errorf("Samples = %d", got.Samples)
		}
	})

	t.Run("even sample count", func(t *testing.T) {
		issues := []tracker.Issue{
			cycleIssue("2025-01-01T00:00:00Z", "2025-01-04T00:00:00Z"),
			cycleIssue("2025-01-02T00:00:00Z", "2025-01-03T00:00:00Z"),
		}
		got := analytics.DeriveCycleTimeStats(issues, w)
		if *got.Median != 2 || *got.P75 != 3 {
			t.Errorf("median=%v p75=%v, want 2 3", *got.Median, *got.P75)
		}
	})

	t.Run("fractional days", func(t *testing.T) {
		issues := []tracker.Issue{cycleIssue("2025-01-01T00:00:00Z", "2025-01-01T12:00:00Z")}
		got := analytics.DeriveCycleTimeStats(issues, w)
		if *got.Median != 0.5 {
			t.Errorf("median = %v, want 0.5", *got.Median)
		}
	})

	t.Run("outside window", func(t *testing.T) {
		issues := []tracker.Issue{cycleIssue("2024-01-01T00:00:00Z", "2024-01-03T00:00:00Z")}
		got := analytics.DeriveCycleTimeStats(issues, w)
		if !got.InsufficientData || got.Median != nil || got.P75 != nil {
			t.Errorf("got %+v, want insufficient data", got)
		}
	})

	t.Run("discarded samples", func(t *testing.T) {
		issues := []tracker.Issue{
			// done before started
			cycleIssue("2025-01-05T00:00:00Z", "2025-01-03T00:00:00Z"),
			// done after window end
			cycleIssue("2025-01-05T00:00:00Z", "2025-01-12T00:00:00Z"),
			// unparseable
			cycleIssue("soon", "2025-01-06T00:00:00Z"),
			// never started
			{History: []tracker.HistoryEntry{statusEntry(tracker.StatusDone, "2025-01-06T00:00:00Z")}},
			// no history
			{Status: tracker.StatusDone},
		}
		got := analytics.DeriveCycleTimeStats(issues, w)
		if !got.InsufficientData || got.Samples != 0 {
			t.Errorf("got %+v, want insufficient data", got)
		}
	})

	t.Run("first in progress and earliest done", func(t *testing.T) {
		issue := tracker.Issue{History: []tracker.HistoryEntry{
			statusEntry(tracker.StatusInProgress, "2024-12-20T00:00:00Z"),
			statusEntry(tracker.StatusInProgress, "2025-01-02T00:00:00Z"),
			statusEntry(tracker.StatusTodo, "2025-01-03T00:00:00Z"),
			statusEntry(tracker.StatusInProgress, "2025-01-04T00:00:00Z"),
			statusEntry(tracker.StatusDone, "2025-01-08T00:00:00Z"),
			statusEntry(tracker.StatusDone, "2025-01-06T00:00:00Z"),
		}}
		got := analytics.DeriveCycleTimeStats([]tracker.Issue{issue}, w)
		if got.InsufficientData || *got.Median != 4 {
			t.Errorf("got %+v, want median 4", got)
		}
	})
}
