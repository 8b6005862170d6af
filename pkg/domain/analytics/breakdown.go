package analytics

import (
	"math"
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// StatusBreakdown counts issues per board column. Percentages are rounded
// independently and need not sum to 100.
type StatusBreakdown struct {
	Todo              int `json:"todo"`
	InProgress        int `json:"in_progress"`
	InReview          int `json:"in_review"`
	Done              int `json:"done"`
	Total             int `json:"total"`
	TodoPercent       int `json:"todo_percent"`
	InProgressPercent int `json:"in_progress_percent"`
	InReviewPercent   int `json:"in_review_percent"`
	DonePercent       int `json:"done_percent"`
}

// Count returns the count for a status.
func (b StatusBreakdown) Count(s tracker.IssueStatus) int {
	switch s {
	case tracker.StatusTodo:
		return b.Todo
	case tracker.StatusInProgress:
		return b.InProgress
	case tracker.StatusInReview:
		return b.InReview
	case tracker.StatusDone:
		return b.Done
	}
	return 0
}

// DeriveStatusBreakdown counts issues in each of the four statuses.
func DeriveStatusBreakdown(issues []tracker.Issue) StatusBreakdown {
	var b StatusBreakdown
	for _, issue := range issues {
		switch issue.Status {
		case tracker.StatusTodo:
			b.Todo++
		case tracker.StatusInProgress:
			b.InProgress++
		case tracker.StatusInReview:
			b.InReview++
		case tracker.StatusDone:
			b.Done++
		}
	}
	b.Total = len(issues)
	b.TodoPercent = percent(b.Todo, b.Total)
	b.InProgressPercent = percent(b.InProgress, b.Total)
	b.InReviewPercent = percent(b.InReview, b.Total)
	b.DonePercent = percent(b.Done, b.Total)
	return b
}

// SprintMeta describes the sprint a progress figure refers to.
type SprintMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ActiveSprintProgress is the completion of the Active sprint.
type ActiveSprintProgress struct {
	Done    int         `json:"done"`
	Total   int         `json:"total"`
	Percent int         `json:"percent"`
	Sprint  *SprintMeta `json:"sprint,omitempty"`
}

// DeriveActiveSprintProgress reports Done/total for the issues of the Active
// sprint. Without an Active sprint the result is zero with no metadata.
func DeriveActiveSprintProgress(issues []tracker.Issue, sprints []tracker.Sprint) ActiveSprintProgress {
	active, ok := tracker.FindActiveSprint(sprints)
	if !ok {
		return ActiveSprintProgress{}
	}

	var p ActiveSprintProgress
	for _, issue := range issues {
		if issue.SprintID != active.ID {
			continue
		}
		p.Total++
		if issue.Status.IsDone() {
			p.Done++
		}
	}
	p.Percent = percent(p.Done, p.Total)
	p.Sprint = &SprintMeta{
		ID:        active.ID,
		Name:      active.Name,
		StartDate: active.StartDate,
		EndDate:   active.EndDate,
	}
	return p
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
