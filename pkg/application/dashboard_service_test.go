package application_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

var dashboardNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dashboardRepo() *MockRepo {
	repo := newMockRepo()
	done := func(at string) []tracker.HistoryEntry {
		return []tracker.HistoryEntry{{Field: tracker.FieldStatus, From: "In Review", To: "Done", At: at}}
	}
	repo.Workspace.Issues = []tracker.Issue{
		{ID: "TSK-001", Title: "a", Status: tracker.StatusDone, ProjectID: "p1", TeamID: "t1", History: done("2025-06-14T10:00:00Z")},
		{ID: "TSK-002", Title: "b", Status: tracker.StatusDone, ProjectID: "p2", TeamID: "t1", History: done("2025-06-13T10:00:00Z")},
		{ID: "TSK-003", Title: "c", Status: tracker.StatusInProgress, ProjectID: "p1", AssigneeID: "alice"},
		{ID: "TSK-004", Title: "d", Status: tracker.StatusTodo, ProjectID: "p2"},
		{ID: "TSK-005", Title: "e", Status: tracker.StatusDone, ProjectID: "p1", History: done("2025-05-01T10:00:00Z")},
	}
	return repo
}

func newDashboardService(repo *MockRepo, prefs application.PreferencesLoader) (*application.DashboardService, *MemoryTelemetryStore) {
	store := &MemoryTelemetryStore{}
	t := application.NewTelemetry(store, zerolog.Nop())
	svc := application.NewDashboardService(repo, prefs, t, zerolog.Nop()).
		WithClock(analytics.FixedClock(dashboardNow))
	return svc, store
}

func TestDashboardService_DefaultPreferences(t *testing.T) {
	svc, store := newDashboardService(dashboardRepo(), nil)

	d, err := svc.Dashboard(context.Background(), application.DashboardQuery{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !d.GeneratedAt.Equal(dashboardNow) {
		t.Errorf("GeneratedAt = %v", d.GeneratedAt)
	}
	if d.Status.Total != 5 {
		t.Errorf("status total = %d, want 5", d.Status.Total)
	}
	if d.Throughput.Count != 2 {
		t.Errorf("7d throughput = %d, want 2", d.Throughput.Count)
	}
	if !reflect.DeepEqual(store.Names(), []string{telemetry.DashboardViewOpened}) {
		t.Errorf("events = %v", store.Names())
	}
}

func TestDashboardService_QueryOverridesPreferences(t *testing.T) {
	prefs := func() (application.DashboardPreferences, error) {
		return application.DashboardPreferences{
			ProjectIDs: []string{"p2"},
			TimeRange:  analytics.TimeRange{Preset: analytics.Preset7d},
			Settings:   analytics.DefaultSettings(),
		}, nil
	}
	svc, store := newDashboardService(dashboardRepo(), prefs)
	ctx := context.Background()

	d, err := svc.Compute(ctx, application.DashboardQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Status.Total != 2 {
		t.Errorf("stored project filter: total = %d, want 2", d.Status.Total)
	}

	wide := analytics.TimeRange{Preset: analytics.PresetCustom, From: "2025-04-01", To: "2025-06-15T12:00:00Z"}
	d, err = svc.Dashboard(ctx, application.DashboardQuery{
		TimeRange:  &wide,
		ProjectIDs: []string{"p1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Status.Total != 3 || d.Throughput.Count != 2 {
		t.Errorf("override: total = %d throughput = %d", d.Status.Total, d.Throughput.Count)
	}

	d, err = svc.Compute(ctx, application.DashboardQuery{ProjectIDs: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if d.Status.Total != 5 {
		t.Errorf("cleared filter: total = %d, want 5", d.Status.Total)
	}

	want := []string{telemetry.DashboardViewOpened, telemetry.DashboardTimeRangeChanged}
	if !reflect.DeepEqual(store.Names(), want) {
		t.Errorf("events = %v, want %v", store.Names(), want)
	}
}

func TestDashboardService_Metric(t *testing.T) {
	svc, store := newDashboardService(dashboardRepo(), nil)
	ctx := context.Background()

	for _, name := range application.MetricNames {
		t.Run(name, func(t *testing.T) {
			v, err := svc.Metric(ctx, name, application.DashboardQuery{})
			if err != nil {
				t.Fatalf("Metric(%s): %v", name, err)
			}
			if v == nil {
				t.Fatalf("Metric(%s) returned nil", name)
			}
		})
	}

	wip, err := svc.Metric(ctx, application.MetricWIP, application.DashboardQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if res, ok := wip.(analytics.WipPressureResult); !ok || res.WIP != 2 {
		t.Errorf("wip = %#v", wip)
	}

	_, err = svc.Metric(ctx, "burndown", application.DashboardQuery{})
	if !errors.Is(err, application.ErrUnknownMetric) {
		t.Errorf("err = %v, want ErrUnknownMetric", err)
	}

	counts := map[string]int{}
	for _, name := range store.Names() {
		counts[name]++
	}
	if counts[telemetry.BlockedStaleCardViewed] != 1 || counts[telemetry.WIPPressureCardViewed] != 2 {
		t.Errorf("card events = %v", counts)
	}
	if counts[telemetry.DashboardViewOpened] != 0 {
		t.Error("metric accessors must not record a dashboard view")
	}
}

func TestDashboardService_Accessors(t *testing.T) {
	svc, _ := newDashboardService(dashboardRepo(), nil)
	ctx := context.Background()
	q := application.DashboardQuery{}

	tp, err := svc.Throughput(ctx, q)
	if err != nil || tp.Count != 2 {
		t.Errorf("Throughput = %+v, %v", tp, err)
	}
	wip, err := svc.WipPressure(ctx, q)
	if err != nil || wip.Level != analytics.WipGreen {
		t.Errorf("WipPressure = %+v, %v", wip, err)
	}
	if _, err := svc.CycleTime(ctx, q); err != nil {
		t.Errorf("CycleTime: %v", err)
	}
	eta, err := svc.DeliveryEta(ctx, q)
	if err != nil || len(eta) != 2 {
		t.Errorf("DeliveryEta = %+v, %v", eta, err)
	}
}

func TestDashboardService_Errors(t *testing.T) {
	ctx := context.Background()

	repo := dashboardRepo()
	repo.LoadError = tracker.ErrWorkspaceNotInitialized
	svc, store := newDashboardService(repo, nil)
	if _, err := svc.Dashboard(ctx, application.DashboardQuery{}); !errors.Is(err, tracker.ErrWorkspaceNotInitialized) {
		t.Errorf("err = %v", err)
	}
	if len(store.Events) != 0 {
		t.Error("failed dashboard must not record a view")
	}

	boom := errors.New("bad yaml")
	svc, _ = newDashboardService(dashboardRepo(), func() (application.DashboardPreferences, error) {
		return application.DashboardPreferences{}, boom
	})
	if _, err := svc.Compute(ctx, application.DashboardQuery{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped preferences error", err)
	}
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *application.Telemetry
	if tel.Track(telemetry.DashboardViewOpened, nil) != nil {
		t.Error("nil Telemetry should drop events")
	}

	tel = application.NewTelemetry(nil, zerolog.Nop())
	e := tel.Track(telemetry.WIPThresholdChanged, map[string]any{"from": 10, "to": 12})
	if e == nil || e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("event = %+v", e)
	}
}
