// Package analytics derives dashboard metrics from tracker issues and sprints.
//
// Every derivation is a pure function of its arguments. Derivations that
// depend on the current time take a Clock so callers can pin "now".
// Malformed input never fails a derivation: unparseable timestamps are
// skipped and empty collections produce zero values.
package analytics

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func now(c Clock) time.Time {
	if c == nil {
		return time.Now()
	}
	return c.Now()
}
