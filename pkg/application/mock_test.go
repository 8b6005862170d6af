package application_test

import (
	"context"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

type MockRepo struct {
	Workspace *tracker.Workspace
	Saves     int
	SaveError error
	LoadError error
}

func newMockRepo() *MockRepo {
	return &MockRepo{Workspace: tracker.NewWorkspace()}
}

func (m *MockRepo) LoadWorkspace(ctx context.Context) (*tracker.Workspace, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	// hand out a copy so failed mutations do not leak into the stored state
	cp := *m.Workspace
	cp.Issues = append([]tracker.Issue(nil), m.Workspace.Issues...)
	for i := range cp.Issues {
		cp.Issues[i].History = append([]tracker.HistoryEntry(nil), cp.Issues[i].History...)
	}
	cp.Sprints = append([]tracker.Sprint(nil), m.Workspace.Sprints...)
	cp.Projects = append([]tracker.Project(nil), m.Workspace.Projects...)
	cp.Teams = append([]tracker.Team(nil), m.Workspace.Teams...)
	return &cp, nil
}

func (m *MockRepo) SaveWorkspace(ctx context.Context, w *tracker.Workspace) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Saves++
	w.Version++
	m.Workspace = w
	return nil
}

type MemoryTelemetryStore struct {
	Events []*telemetry.Event
}

func (m *MemoryTelemetryStore) Append(e *telemetry.Event) error {
	m.Events = append(m.Events, e)
	return nil
}

func (m *MemoryTelemetryStore) LoadAll() ([]*telemetry.Event, error) {
	return m.Events, nil
}

func (m *MemoryTelemetryStore) Names() []string {
	names := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		names = append(names, e.Name)
	}
	return names
}
