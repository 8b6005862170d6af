package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// CatalogService manages the projects and teams issues are scoped by.
type CatalogService struct {
	repo tracker.WorkspaceRepository
	now  func() time.Time
}

func NewCatalogService(repo tracker.WorkspaceRepository) *CatalogService {
	return &CatalogService{repo: repo, now: time.Now}
}

func (s *CatalogService) AddProject(ctx context.Context, id, name string) (tracker.Project, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return tracker.Project{}, &tracker.ValidationError{Problems: []string{"project id and name are required"}}
	}
	p := tracker.Project{ID: id, Name: name, CreatedAt: s.now().UTC()}
	err := updateWorkspace(ctx, s.repo, func(w *tracker.Workspace) error {
		for _, existing := range w.Projects {
			if existing.ID == id {
				return &tracker.ValidationError{Problems: []string{fmt.Sprintf("project %s already exists", id)}}
			}
		}
		w.Projects = append(w.Projects, p)
		return nil
	})
	return p, err
}

func (s *CatalogService) AddTeam(ctx context.Context, id, name string) (tracker.Team, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return tracker.Team{}, &tracker.ValidationError{Problems: []string{"team id and name are required"}}
	}
	team := tracker.Team{ID: id, Name: name, CreatedAt: s.now().UTC()}
	err := updateWorkspace(ctx, s.repo, func(w *tracker.Workspace) error {
		for _, existing := range w.Teams {
			if existing.ID == id {
				return &tracker.ValidationError{Problems: []string{fmt.Sprintf("team %s already exists", id)}}
			}
		}
		w.Teams = append(w.Teams, team)
		return nil
	})
	return team, err
}

// Catalog returns the known projects and teams.
func (s *CatalogService) Catalog(ctx context.Context) ([]tracker.Project, []tracker.Team, error) {
	w, err := s.repo.LoadWorkspace(ctx)
	if err != nil {
		return nil, nil, err
	}
	return w.Projects, w.Teams, nil
}
