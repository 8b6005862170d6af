package analytics

import (
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// BlockedMode selects how the blocked flag history is read.
type BlockedMode string

const (
	// BlockedEver counts an issue that was marked blocked at any point.
	BlockedEver BlockedMode = "ever"
	// BlockedCurrent counts an issue whose latest blocked change set it to true.
	BlockedCurrent BlockedMode = "current"
)

// IsValid reports whether the mode is known.
func (m BlockedMode) IsValid() bool {
	return m == BlockedEver || m == BlockedCurrent
}

// DefaultStaleAgeDays is the default staleness threshold.
const DefaultStaleAgeDays = 7

// StatusFlags counts blocked and stale issues in one status.
type StatusFlags struct {
	Blocked int `json:"blocked"`
	Stale   int `json:"stale"`
}

// BlockedStaleResult holds per-status and total blocked/stale counts.
// PerStatus always has an entry for each of the four statuses.
type BlockedStaleResult struct {
	PerStatus    map[tracker.IssueStatus]StatusFlags `json:"per_status"`
	TotalBlocked int                                 `json:"total_blocked"`
	TotalStale   int                                 `json:"total_stale"`
	StaleAgeDays int                                 `json:"stale_age_days"`
	Mode         BlockedMode                         `json:"mode"`
}

// DeriveBlockedAndStale uses BlockedEver.
func DeriveBlockedAndStale(issues []tracker.Issue, staleAgeDays int, clock Clock) BlockedStaleResult {
	return DeriveBlockedAndStaleWithMode(issues, staleAgeDays, clock, BlockedEver)
}

// DeriveBlockedAndStaleWithMode counts issues not updated since
// now - staleAgeDays as stale, and issues flagged in their history as blocked.
// Issues without history are never blocked.
func DeriveBlockedAndStaleWithMode(issues []tracker.Issue, staleAgeDays int, clock Clock, mode BlockedMode) BlockedStaleResult {
	if !mode.IsValid() {
		mode = BlockedEver
	}
	cutoff := now(clock).Add(-time.Duration(staleAgeDays) * 24 * time.Hour)

	r := BlockedStaleResult{
		PerStatus:    make(map[tracker.IssueStatus]StatusFlags, 4),
		StaleAgeDays: staleAgeDays,
		Mode:         mode,
	}
	for _, s := range tracker.AllIssueStatuses() {
		r.PerStatus[s] = StatusFlags{}
	}

	for _, issue := range issues {
		flags, known := r.PerStatus[issue.Status]
		if isBlocked(issue, mode) {
			flags.Blocked++
			r.TotalBlocked++
		}
		if issue.UpdatedAt.Before(cutoff) {
			flags.Stale++
			r.TotalStale++
		}
		if known {
			r.PerStatus[issue.Status] = flags
		}
	}
	return r
}

func isBlocked(issue tracker.Issue, mode BlockedMode) bool {
	if mode == BlockedCurrent {
		return currentlyBlocked(issue)
	}
	for _, entry := range issue.History {
		if v, ok := entry.BlockedValue(); ok && v {
			return true
		}
	}
	return false
}

// currentlyBlocked reads the blocked change with the latest parseable
// timestamp. Ties go to the later entry.
func currentlyBlocked(issue tracker.Issue) bool {
	var (
		latest  time.Time
		value   bool
		matched bool
	)
	for _, entry := range issue.History {
		v, ok := entry.BlockedValue()
		if !ok {
			continue
		}
		at, ok := entry.Time()
		if !ok {
			continue
		}
		if !matched || !at.Before(latest) {
			latest, value, matched = at, v, true
		}
	}
	return matched && value
}
