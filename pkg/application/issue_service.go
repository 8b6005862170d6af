package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// IssueDraft carries the user supplied fields of a new issue.
type IssueDraft struct {
	Title       string
	Description string
	Priority    tracker.Priority
	ProjectID   string
	TeamID      string
	SprintID    string
	AssigneeID  string
}

type IssueService struct {
	repo      tracker.WorkspaceRepository
	telemetry *Telemetry
	log       zerolog.Logger
	now       func() time.Time
}

func NewIssueService(repo tracker.WorkspaceRepository, t *Telemetry, logger zerolog.Logger) *IssueService {
	return &IssueService{repo: repo, telemetry: t, log: logger, now: time.Now}
}

// update loads the workspace, applies fn and saves the result.
func (s *IssueService) update(ctx context.Context, fn func(w *tracker.Workspace) error) error {
	return updateWorkspace(ctx, s.repo, fn)
}

func updateWorkspace(ctx context.Context, repo tracker.WorkspaceRepository, fn func(w *tracker.Workspace) error) error {
	w, err := repo.LoadWorkspace(ctx)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return repo.SaveWorkspace(ctx, w)
}

// ListIssues returns every issue in storage order.
func (s *IssueService) ListIssues(ctx context.Context) ([]tracker.Issue, error) {
	w, err := s.repo.LoadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	return w.Issues, nil
}

// GetIssue returns a copy of one issue.
func (s *IssueService) GetIssue(ctx context.Context, id string) (tracker.Issue, error) {
	w, err := s.repo.LoadWorkspace(ctx)
	if err != nil {
		return tracker.Issue{}, err
	}
	issue, err := w.Issue(id)
	if err != nil {
		return tracker.Issue{}, err
	}
	return *issue, nil
}

// CreateIssue stores a new Todo issue with the next TSK-NNN identifier.
func (s *IssueService) CreateIssue(ctx context.Context, d IssueDraft) (tracker.Issue, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return tracker.Issue{}, &tracker.ValidationError{Problems: []string{"title is required"}}
	}
	if d.Priority == "" {
		d.Priority = tracker.PriorityP3
	}
	if !d.Priority.IsValid() {
		return tracker.Issue{}, &tracker.ValidationError{Problems: []string{fmt.Sprintf("unknown priority %q", d.Priority)}}
	}

	var created tracker.Issue
	err := s.update(ctx, func(w *tracker.Workspace) error {
		if d.SprintID != "" {
			if _, err := w.Sprint(d.SprintID); err != nil {
				return err
			}
		}
		now := s.now().UTC()
		created = tracker.Issue{
			ID:          w.NextIssueID(),
			Title:       d.Title,
			Description: d.Description,
			Priority:    d.Priority,
			Status:      tracker.StatusTodo,
			AssigneeID:  d.AssigneeID,
			SprintID:    d.SprintID,
			ProjectID:   d.ProjectID,
			TeamID:      d.TeamID,
			CreatedAt:   now,
			UpdatedAt:   now,
			History:     []tracker.HistoryEntry{},
		}
		w.Issues = append(w.Issues, created)
		return nil
	})
	if err != nil {
		return tracker.Issue{}, err
	}

	s.log.Debug().Str("issue", created.ID).Msg("issue created")
	return created, nil
}

// MoveIssue moves an issue one step along the board workflow and records
// the change in its history.
func (s *IssueService) MoveIssue(ctx context.Context, id string, target tracker.IssueStatus) (tracker.Issue, error) {
	if !target.IsValid() {
		return tracker.Issue{}, &tracker.ValidationError{Problems: []string{fmt.Sprintf("unknown status %q", target)}}
	}

	var moved tracker.Issue
	var from tracker.IssueStatus
	err := s.update(ctx, func(w *tracker.Workspace) error {
		issue, err := w.Issue(id)
		if err != nil {
			return err
		}
		from = issue.Status

		m, err := tracker.NewStatusMachine(issue.ID, issue.Status, nil)
		if err != nil {
			return err
		}
		if err := m.MoveTo(target); err != nil {
			return err
		}

		now := s.now().UTC()
		issue.History = append(issue.History, tracker.HistoryEntry{
			Field: tracker.FieldStatus,
			From:  string(from),
			To:    string(target),
			At:    tracker.FormatTimestamp(now),
		})
		issue.Status = m.Current()
		issue.UpdatedAt = now
		moved = *issue
		return nil
	})
	if err != nil {
		return tracker.Issue{}, err
	}

	s.telemetry.Track(telemetry.IssueStatusChanged, map[string]any{
		"issue_id": id,
		"from":     string(from),
		"to":       string(target),
	})
	return moved, nil
}

// SetBlocked flags or unflags an issue. A history entry is written only when
// the value changes.
func (s *IssueService) SetBlocked(ctx context.Context, id string, blocked bool) (tracker.Issue, error) {
	var result tracker.Issue
	err := s.update(ctx, func(w *tracker.Workspace) error {
		issue, err := w.Issue(id)
		if err != nil {
			return err
		}
		current := issue.IsBlocked()
		if current != blocked {
			now := s.now().UTC()
			issue.History = append(issue.History, tracker.HistoryEntry{
				Field: tracker.FieldBlocked,
				From:  current,
				To:    blocked,
				At:    tracker.FormatTimestamp(now),
			})
			issue.UpdatedAt = now
		}
		result = *issue
		return nil
	})
	return result, err
}

// AssignToSprint moves an issue into a sprint. An empty sprintID returns it
// to the backlog.
func (s *IssueService) AssignToSprint(ctx context.Context, id, sprintID string) (tracker.Issue, error) {
	var result tracker.Issue
	err := s.update(ctx, func(w *tracker.Workspace) error {
		issue, err := w.Issue(id)
		if err != nil {
			return err
		}
		if sprintID != "" {
			if _, err := w.Sprint(sprintID); err != nil {
				return err
			}
		}
		issue.SprintID = sprintID
		issue.UpdatedAt = s.now().UTC()
		result = *issue
		return nil
	})
	return result, err
}

// Assign sets or clears the assignee.
func (s *IssueService) Assign(ctx context.Context, id, assigneeID string) (tracker.Issue, error) {
	var result tracker.Issue
	err := s.update(ctx, func(w *tracker.Workspace) error {
		issue, err := w.Issue(id)
		if err != nil {
			return err
		}
		issue.AssigneeID = strings.TrimSpace(assigneeID)
		issue.UpdatedAt = s.now().UTC()
		result = *issue
		return nil
	})
	return result, err
}

// DeleteIssue removes an issue.
func (s *IssueService) DeleteIssue(ctx context.Context, id string) error {
	return s.update(ctx, func(w *tracker.Workspace) error {
		return w.RemoveIssue(id)
	})
}
