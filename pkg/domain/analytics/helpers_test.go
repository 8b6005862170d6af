package analytics_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, ok := tracker.ParseTimestamp(s)
	if !ok {
		t.Fatalf("bad timestamp %q", s)
	}
	return ts
}

func customWindow(t *testing.T, from, to string) analytics.Window {
	t.Helper()
	return analytics.Window{From: mustTime(t, from), To: mustTime(t, to)}
}

func statusEntry(to tracker.IssueStatus, at string) tracker.HistoryEntry {
	return tracker.HistoryEntry{Field: tracker.FieldStatus, To: string(to), At: at}
}

func blockedEntry(to bool, at string) tracker.HistoryEntry {
	return tracker.HistoryEntry{Field: tracker.FieldBlocked, From: !to, To: to, At: at}
}

func issuesWithStatus(n int, s tracker.IssueStatus) []tracker.Issue {
	out := make([]tracker.Issue, n)
	for i := range out {
		out[i].Status = s
	}
	return out
}
