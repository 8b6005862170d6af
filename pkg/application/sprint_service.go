package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

type SprintService struct {
	repo      tracker.WorkspaceRepository
	telemetry *Telemetry
	log       zerolog.Logger
	now       func() time.Time
}

func NewSprintService(repo tracker.WorkspaceRepository, t *Telemetry, logger zerolog.Logger) *SprintService {
	return &SprintService{repo: repo, telemetry: t, log: logger, now: time.Now}
}

// ListSprints returns sprints in storage order.
func (s *SprintService) ListSprints(ctx context.Context) ([]tracker.Sprint, error) {
	w, err := s.repo.LoadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	return w.Sprints, nil
}

// CreateSprint adds a Planned sprint.
func (s *SprintService) CreateSprint(ctx context.Context, name string, start, end time.Time) (tracker.Sprint, error) {
	var problems []string
	name = strings.TrimSpace(name)
	if name == "" {
		problems = append(problems, "sprint name is required")
	}
	if start.IsZero() || end.IsZero() {
		problems = append(problems, "sprint start and end dates are required")
	} else if !end.After(start) {
		problems = append(problems, "sprint end must be after its start")
	}
	if len(problems) > 0 {
		return tracker.Sprint{}, &tracker.ValidationError{Problems: problems}
	}

	now := s.now().UTC()
	sprint := tracker.Sprint{
		ID:        "sprint-" + uuid.New().String()[:8],
		Name:      name,
		Status:    tracker.SprintPlanned,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := updateWorkspace(ctx, s.repo, func(w *tracker.Workspace) error {
		w.Sprints = append(w.Sprints, sprint)
		return nil
	})
	if err != nil {
		return tracker.Sprint{}, err
	}
	return sprint, nil
}

// StartSprint activates a Planned sprint. Only one sprint may be Active.
func (s *SprintService) StartSprint(ctx context.Context, id string) (tracker.Sprint, error) {
	var result tracker.Sprint
	err := updateWorkspace(ctx, s.repo, func(w *tracker.Workspace) error {
		sprint, err := w.Sprint(id)
		if err != nil {
			return err
		}
		if active, ok := tracker.FindActiveSprint(w.Sprints); ok && active.ID != id {
			return &tracker.ActiveSprintError{SprintID: id, ActiveID: active.ID}
		}
		if sprint.Status != tracker.SprintPlanned {
			return &tracker.ValidationError{Problems: []string{
				fmt.Sprintf("sprint %s is %s, only Planned sprints can be started", id, sprint.Status),
			}}
		}
		sprint.Status = tracker.SprintActive
		sprint.UpdatedAt = s.now().UTC()
		result = *sprint
		return nil
	})
	if err != nil {
		return tracker.Sprint{}, err
	}
	s.log.Info().Str("sprint", id).Msg("sprint started")
	return result, nil
}

// CompleteSprint marks a sprint Completed. With moveUnfinished set, its
// issues that are not Done go back to the backlog. The number of moved
// issues is returned.
func (s *SprintService) CompleteSprint(ctx context.Context, id string, moveUnfinished bool) (tracker.Sprint, int, error) {
	var result tracker.Sprint
	moved := 0
	err := updateWorkspace(ctx, s.repo, func(w *tracker.Workspace) error {
		sprint, err := w.Sprint(id)
		if err != nil {
			return err
		}
		if sprint.Status == tracker.SprintCompleted {
			return &tracker.ValidationError{Problems: []string{fmt.Sprintf("sprint %s is already completed", id)}}
		}

		now := s.now().UTC()
		sprint.Status = tracker.SprintCompleted
		sprint.UpdatedAt = now
		result = *sprint

		if !moveUnfinished {
			return nil
		}
		for i := range w.Issues {
			issue := &w.Issues[i]
			if issue.SprintID == id && !issue.Status.IsDone() {
				issue.SprintID = ""
				issue.UpdatedAt = now
				moved++
			}
		}
		return nil
	})
	if err != nil {
		return tracker.Sprint{}, 0, err
	}

	s.telemetry.Track(telemetry.SprintCompleted, map[string]any{
		"sprint_id":        id,
		"moved_to_backlog": moved,
	})
	return result, moved, nil
}
