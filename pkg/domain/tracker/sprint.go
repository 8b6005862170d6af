package tracker

import "time"

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "Planned"
	SprintActive    SprintStatus = "Active"
	SprintCompleted SprintStatus = "Completed"
)

func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	default:
		return false
	}
}

// Sprint is a time-boxed container of issues (Planned -> Active -> Completed).
type Sprint struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    SprintStatus `json:"status"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// LengthDays returns the sprint span in fractional days.
func (s Sprint) LengthDays() float64 {
	return s.EndDate.Sub(s.StartDate).Hours() / 24
}

// FindActiveSprint returns the first Active sprint, if any.
func FindActiveSprint(sprints []Sprint) (Sprint, bool) {
	for _, s := range sprints {
		if s.Status == SprintActive {
			return s, true
		}
	}
	return Sprint{}, false
}
