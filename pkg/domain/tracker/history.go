package tracker

import (
	"strings"
	"time"
)

// History field names written by the issue service.
const (
	FieldStatus  = "status"
	FieldBlocked = "blocked"
)

// HistoryEntry is an append-only record of one field change.
// At is kept as the raw timestamp text; entries whose At cannot be parsed are
// skipped by every time-based derivation.
type HistoryEntry struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
	At    string `json:"at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the tracker has written over
// time. The boolean is false for empty or malformed input.
func ParseTimestamp(s string) (time.Time, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time parses At.
func (e HistoryEntry) Time() (time.Time, bool) {
	return ParseTimestamp(e.At)
}

// ToStatus returns the target status of a status change entry.
func (e HistoryEntry) ToStatus() (IssueStatus, bool) {
	if e.Field != FieldStatus {
		return "", false
	}
	s, ok := e.To.(string)
	if !ok {
		return "", false
	}
	return IssueStatus(s), true
}

// IsTransitionTo reports whether the entry records a status change to target.
func (e HistoryEntry) IsTransitionTo(target IssueStatus) bool {
	s, ok := e.ToStatus()
	return ok && s == target
}

// BlockedValue returns the new value of a blocked flag change.
func (e HistoryEntry) BlockedValue() (bool, bool) {
	if e.Field != FieldBlocked {
		return false, false
	}
	b, ok := e.To.(bool)
	return b, ok
}

// FormatTimestamp renders t in the layout history entries are written with.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
