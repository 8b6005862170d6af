package analytics

import (
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// Preset names a rolling or custom dashboard time range.
type Preset string

const (
	Preset7d     Preset = "7d"
	Preset14d    Preset = "14d"
	Preset30d    Preset = "30d"
	PresetCustom Preset = "custom"
)

// DefaultWindowDays is used when a range cannot be resolved.
const DefaultWindowDays = 7

var presetDays = map[Preset]int{
	Preset7d:  7,
	Preset14d: 14,
	Preset30d: 30,
}

// IsValid reports whether the preset is known.
func (p Preset) IsValid() bool {
	_, rolling := presetDays[p]
	return rolling || p == PresetCustom
}

// TimeRange is the dashboard range selector. From and To are only read for
// the custom preset.
type TimeRange struct {
	Preset Preset `json:"preset" yaml:"preset"`
	From   string `json:"from,omitempty" yaml:"from,omitempty"`
	To     string `json:"to,omitempty" yaml:"to,omitempty"`
}

// Window is a closed [From, To] interval.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports From <= t <= To.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Days returns the window length in fractional days.
func (w Window) Days() float64 {
	return w.To.Sub(w.From).Hours() / 24
}

// ResolveTimeRange turns a range selector into concrete instants.
// A custom range with both bounds parseable is used verbatim. Rolling presets
// end at now. Anything else resolves to the default window ending at now.
func ResolveTimeRange(tr TimeRange, clock Clock) Window {
	end := now(clock)

	if tr.Preset == PresetCustom {
		from, okFrom := tracker.ParseTimestamp(tr.From)
		to, okTo := tracker.ParseTimestamp(tr.To)
		if okFrom && okTo {
			return Window{From: from, To: to}
		}
	}

	days, ok := presetDays[tr.Preset]
	if !ok {
		days = DefaultWindowDays
	}
	return Window{From: end.AddDate(0, 0, -days), To: end}
}
