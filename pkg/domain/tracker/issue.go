// Package tracker holds the FlowCraft record-keeping entities: issues, sprints,
// projects, teams and users, plus the issue status workflow.
package tracker

import (
	"time"
)

type IssueStatus string

const (
	StatusTodo       IssueStatus = "Todo"
	StatusInProgress IssueStatus = "In Progress"
	StatusInReview   IssueStatus = "In Review"
	StatusDone       IssueStatus = "Done"
)

// AllIssueStatuses returns the closed set of issue statuses in board order.
func AllIssueStatuses() []IssueStatus {
	return []IssueStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone}
}

// IsValid returns true if the status is one of the four board columns.
func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	default:
		return false
	}
}

func (s IssueStatus) String() string {
	return string(s)
}

// IsDone reports whether the status is the terminal Done column.
func (s IssueStatus) IsDone() bool {
	return s == StatusDone
}

type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
	PriorityP5 Priority = "P5"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2, PriorityP3, PriorityP4, PriorityP5:
		return true
	default:
		return false
	}
}

// Issue is a trackable unit of work. Optional foreign keys are empty when absent.
type Issue struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Priority    Priority       `json:"priority,omitempty"`
	Status      IssueStatus    `json:"status"`
	AssigneeID  string         `json:"assignee_id,omitempty"`
	SprintID    string         `json:"sprint_id,omitempty"`
	ProjectID   string         `json:"project_id,omitempty"`
	TeamID      string         `json:"team_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	History     []HistoryEntry `json:"history,omitempty"`
}

// HasHistory reports whether change records are available for the issue.
func (i Issue) HasHistory() bool {
	return len(i.History) > 0
}

// IsBlocked returns the value of the most recently appended blocked change.
func (i Issue) IsBlocked() bool {
	for k := len(i.History) - 1; k >= 0; k-- {
		if v, ok := i.History[k].BlockedValue(); ok {
			return v
		}
	}
	return false
}

// IsAssigned reports whether the issue has an assignee.
func (i Issue) IsAssigned() bool {
	return i.AssigneeID != ""
}

// Project groups issues for delivery tracking.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Team groups issues by owning team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a potential assignee.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
