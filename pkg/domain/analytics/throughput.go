package analytics

import "github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"

// ThroughputResult counts issues completed inside a window.
// Approximate is set when at least one counted issue had no history and was
// counted from its status and updatedAt instead of a recorded transition.
type ThroughputResult struct {
	Count         int  `json:"count"`
	Approximate   bool `json:"approximate"`
	HistoryBacked int  `json:"history_backed"`
	Fallback      int  `json:"fallback"`
}

// DeriveThroughput counts issues that reached Done inside w. Each issue
// counts at most once.
func DeriveThroughput(issues []tracker.Issue, w Window) ThroughputResult {
	var r ThroughputResult
	for _, issue := range issues {
		counted, fallback := completedIn(issue, w)
		if !counted {
			continue
		}
		r.Count++
		if fallback {
			r.Fallback++
		} else {
			r.HistoryBacked++
		}
	}
	r.Approximate = r.Fallback > 0
	return r
}

// completedIn reports whether the issue reached Done inside w. Issues with
// history are judged only by their status entries; issues without history
// fall back to status and updatedAt, which is reported through fallback.
func completedIn(issue tracker.Issue, w Window) (counted, fallback bool) {
	if !issue.HasHistory() {
		return issue.Status.IsDone() && w.Contains(issue.UpdatedAt), true
	}
	for _, entry := range issue.History {
		if !entry.IsTransitionTo(tracker.StatusDone) {
			continue
		}
		at, ok := entry.Time()
		if ok && w.Contains(at) {
			return true, false
		}
	}
	return false, false
}
