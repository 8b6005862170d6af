package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const issueIDPrefix = "TSK-"

// Workspace is the full tracker state persisted as one document.
type Workspace struct {
	Version   int       `json:"version"`
	Issues    []Issue   `json:"issues"`
	Sprints   []Sprint  `json:"sprints"`
	Projects  []Project `json:"projects"`
	Teams     []Team    `json:"teams"`
	Users     []User    `json:"users"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkspace returns an empty workspace with non-nil collections.
func NewWorkspace() *Workspace {
	return &Workspace{
		Issues:   []Issue{},
		Sprints:  []Sprint{},
		Projects: []Project{},
		Teams:    []Team{},
		Users:    []User{},
	}
}

// Issue returns a pointer to the stored issue so callers can mutate it in place.
func (w *Workspace) Issue(id string) (*Issue, error) {
	for i := range w.Issues {
		if w.Issues[i].ID == id {
			return &w.Issues[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, id)
}

// Sprint returns a pointer to the stored sprint.
func (w *Workspace) Sprint(id string) (*Sprint, error) {
	for i := range w.Sprints {
		if w.Sprints[i].ID == id {
			return &w.Sprints[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSprintNotFound, id)
}

// RemoveIssue deletes an issue by ID.
func (w *Workspace) RemoveIssue(id string) error {
	for i := range w.Issues {
		if w.Issues[i].ID == id {
			w.Issues = append(w.Issues[:i], w.Issues[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIssueNotFound, id)
}

// NextIssueID returns one past the highest numeric issue ID, zero padded to three digits.
func (w *Workspace) NextIssueID() string {
	max := 0
	for _, issue := range w.Issues {
		n, err := strconv.Atoi(strings.TrimPrefix(issue.ID, issueIDPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", issueIDPrefix, max+1)
}

// Validate checks enumerations and the single-active-sprint invariant.
func (w *Workspace) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(w.Issues))
	for _, issue := range w.Issues {
		if issue.ID == "" {
			problems = append(problems, "issue with empty id")
		} else if seen[issue.ID] {
			problems = append(problems, fmt.Sprintf("duplicate issue id %s", issue.ID))
		}
		seen[issue.ID] = true
		if !issue.Status.IsValid() {
			problems = append(problems, fmt.Sprintf("issue %s: unknown status %q", issue.ID, issue.Status))
		}
	}

	active := 0
	for _, s := range w.Sprints {
		if !s.Status.IsValid() {
			problems = append(problems, fmt.Sprintf("sprint %s: unknown status %q", s.ID, s.Status))
		}
		if s.Status == SprintActive {
			active++
		}
	}
	if active > 1 {
		problems = append(problems, fmt.Sprintf("%d sprints are active, at most one allowed", active))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
