package analytics

import "github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"

// WipLevel classifies work-in-progress pressure.
type WipLevel string

const (
	WipGreen WipLevel = "green"
	WipAmber WipLevel = "amber"
	WipRed   WipLevel = "red"
)

// DefaultWIPThreshold is the default WIP limit.
const DefaultWIPThreshold = 10

const amberRatio = 0.8

// WipPressureResult compares open work against a threshold.
type WipPressureResult struct {
	WIP       int      `json:"wip"`
	Threshold int      `json:"threshold"`
	Ratio     float64  `json:"ratio"`
	Level     WipLevel `json:"level"`
}

// DeriveWipPressure counts non-Done issues against threshold. A threshold
// <= 0 yields ratio 0.
func DeriveWipPressure(issues []tracker.Issue, threshold int) WipPressureResult {
	wip := 0
	for _, issue := range issues {
		if !issue.Status.IsDone() {
			wip++
		}
	}

	ratio := 0.0
	if threshold > 0 {
		ratio = float64(wip) / float64(threshold)
	}
	return WipPressureResult{
		WIP:       wip,
		Threshold: threshold,
		Ratio:     ratio,
		Level:     classifyWip(ratio),
	}
}

func classifyWip(ratio float64) WipLevel {
	switch {
	case ratio > 1:
		return WipRed
	case ratio >= amberRatio:
		return WipAmber
	default:
		return WipGreen
	}
}
