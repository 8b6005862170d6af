package analytics

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// VelocityEntry is the Done count of one sprint.
type VelocityEntry struct {
	SprintID  string               `json:"sprint_id"`
	Name      string               `json:"name"`
	Status    tracker.SprintStatus `json:"status"`
	StartDate time.Time            `json:"start_date"`
	EndDate   time.Time            `json:"end_date"`
	DoneCount int                  `json:"done_count"`
}

// DeriveVelocityBySprint returns the limit sprints (DefaultTopN when
// limit <= 0) with the latest end dates, most recent first, each with the
// number of its issues in Done. Sprint status is not considered.
func DeriveVelocityBySprint(issues []tracker.Issue, sprints []tracker.Sprint, limit int) []VelocityEntry {
	if limit <= 0 {
		limit = DefaultTopN
	}

	done := make(map[string]int)
	for _, issue := range issues {
		if issue.SprintID != "" && issue.Status.IsDone() {
			done[issue.SprintID]++
		}
	}

	ordered := make([]tracker.Sprint, len(sprints))
	copy(ordered, sprints)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].EndDate.After(ordered[b].EndDate)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	entries := make([]VelocityEntry, 0, len(ordered))
	for _, s := range ordered {
		entries = append(entries, VelocityEntry{
			SprintID:  s.ID,
			Name:      s.Name,
			Status:    s.Status,
			StartDate: s.StartDate,
			EndDate:   s.EndDate,
			DoneCount: done[s.ID],
		})
	}
	return entries
}
