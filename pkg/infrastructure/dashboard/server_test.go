package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// fakeProvider implements Provider for testing.
type fakeProvider struct {
	mu        sync.Mutex
	dashboard analytics.Dashboard
	err       error
	queries   []application.DashboardQuery
	views     int
}

func (f *fakeProvider) Compute(ctx context.Context, q application.DashboardQuery) (analytics.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.dashboard, f.err
}

func (f *fakeProvider) Dashboard(ctx context.Context, q application.DashboardQuery) (analytics.Dashboard, error) {
	f.mu.Lock()
	f.views++
	f.mu.Unlock()
	return f.Compute(ctx, q)
}

func (f *fakeProvider) Metric(ctx context.Context, name string, q application.DashboardQuery) (any, error) {
	if _, err := f.Compute(ctx, q); err != nil {
		return nil, err
	}
	switch name {
	case application.MetricWIP:
		return f.dashboard.WipPressure, nil
	case application.MetricThroughput:
		return f.dashboard.Throughput, nil
	}
	return nil, fmt.Errorf("%w %q", application.ErrUnknownMetric, name)
}

func sampleDashboard() analytics.Dashboard {
	return analytics.Dashboard{
		GeneratedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		TimeRange:   analytics.TimeRange{Preset: analytics.Preset7d},
		Status:      analytics.StatusBreakdown{Todo: 2, Done: 1, Total: 3},
		Throughput:  analytics.ThroughputResult{Count: 1, HistoryBacked: 1},
		WipPressure: analytics.WipPressureResult{WIP: 2, Threshold: 10, Ratio: 0.2, Level: analytics.WipGreen},
	}
}

func newTestServer(p Provider) *Server {
	return NewServer("127.0.0.1:0", p, zerolog.Nop())
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleDashboard(t *testing.T) {
	p := &fakeProvider{dashboard: sampleDashboard()}
	s := newTestServer(p)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?range=14d&project=p1,p2&team=t1", nil)
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var got analytics.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status.Total != 3 || got.WipPressure.Level != analytics.WipGreen {
		t.Errorf("dashboard = %+v", got)
	}

	if p.views != 1 || len(p.queries) != 1 {
		t.Fatalf("provider calls: views=%d queries=%d", p.views, len(p.queries))
	}
	q := p.queries[0]
	if q.TimeRange == nil || q.TimeRange.Preset != analytics.Preset14d {
		t.Errorf("range not passed: %+v", q.TimeRange)
	}
	if strings.Join(q.ProjectIDs, ",") != "p1,p2" || strings.Join(q.TeamIDs, ",") != "t1" {
		t.Errorf("scope not passed: %+v", q)
	}
}

func TestHandleMetric(t *testing.T) {
	p := &fakeProvider{dashboard: sampleDashboard()}
	s := newTestServer(p)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/metrics/wip", http.StatusOK},
		{"/api/metrics/throughput?range=30d", http.StatusOK},
		{"/api/metrics/burndown", http.StatusNotFound},
		{"/api/metrics/wip?range=1y", http.StatusBadRequest},
		{"/api/metrics/wip?from=yesterday", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusOK {
				var body errorBody
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
					t.Errorf("error body = %+v, %v", body, err)
				}
			}
		})
	}
}

func TestHandleMetricNames(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	var body struct {
		Metrics []string `json:"metrics"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Metrics) != len(application.MetricNames) {
		t.Errorf("metrics = %v", body.Metrics)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", tracker.ErrWorkspaceNotInitialized), http.StatusServiceUnavailable},
		{&tracker.ValidationError{Problems: []string{"x"}}, http.StatusBadRequest},
		{&QueryError{Param: "range", Value: "x"}, http.StatusBadRequest},
		{fmt.Errorf("%w %q", application.ErrUnknownMetric, "x"), http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleDashboard_NotInitialized(t *testing.T) {
	s := newTestServer(&fakeProvider{err: tracker.ErrWorkspaceNotInitialized})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantPreset  analytics.Preset
		wantProject []string
		wantErr     bool
	}{
		{"empty", "", "", nil, false},
		{"preset", "range=7d", analytics.Preset7d, nil, false},
		{"implicit custom", "from=2025-01-01&to=2025-01-31", analytics.PresetCustom, nil, false},
		{"repeated project", "project=p1&project=p2,p3", "", []string{"p1", "p2", "p3"}, false},
		{"cleared project", "project=", "", []string{}, false},
		{"bad preset", "range=forever", "", nil, true},
		{"bad bound", "range=custom&to=soon", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			q, err := ParseQuery(v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var preset analytics.Preset
			if q.TimeRange != nil {
				preset = q.TimeRange.Preset
			}
			if preset != tt.wantPreset {
				t.Errorf("preset = %q, want %q", preset, tt.wantPreset)
			}
			if (q.ProjectIDs == nil) != (tt.wantProject == nil) || strings.Join(q.ProjectIDs, ",") != strings.Join(tt.wantProject, ",") {
				t.Errorf("projects = %#v, want %#v", q.ProjectIDs, tt.wantProject)
			}
		})
	}
}

func TestLiveWebsocket(t *testing.T) {
	p := &fakeProvider{dashboard: sampleDashboard()}
	s := newTestServer(p)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first analytics.Dashboard
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if first.Status.Total != 3 {
		t.Errorf("initial snapshot = %+v", first)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Hub().Clients() != 1 {
		t.Fatalf("clients = %d, want 1", s.Hub().Clients())
	}

	p.mu.Lock()
	p.dashboard.Status.Total = 7
	p.mu.Unlock()
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var pushed analytics.Dashboard
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed snapshot: %v", err)
	}
	if pushed.Status.Total != 7 {
		t.Errorf("pushed snapshot = %+v", pushed)
	}
}

func TestRefreshWithoutClients(t *testing.T) {
	p := &fakeProvider{dashboard: sampleDashboard()}
	s := newTestServer(p)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(p.queries) != 0 {
		t.Error("Refresh should not compute without live clients")
	}
}

func TestHub(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	if h.Clients() != 2 {
		t.Fatalf("clients = %d", h.Clients())
	}

	if err := h.Broadcast(sampleDashboard()); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []<-chan []byte{a, b} {
		select {
		case frame := <-ch:
			if !strings.Contains(string(frame), `"wip_pressure"`) {
				t.Errorf("frame = %s", frame)
			}
		default:
			t.Fatal("expected a frame")
		}
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Error("cancelled channel should be closed")
	}

	// fill b past its buffer; extra frames are dropped
	for i := 0; i < clientBuffer+3; i++ {
		h.Publish([]byte("x"))
	}
	if len(b) != clientBuffer {
		t.Errorf("buffered = %d, want %d", len(b), clientBuffer)
	}

	h.Close()
	cancelB()
	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should yield a closed channel")
	}
	if h.Clients() != 0 {
		t.Errorf("clients after close = %d", h.Clients())
	}
}
