package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

func initDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".flowcraft"), 0700); err != nil {
		t.Fatalf("mkdir .flowcraft: %v", err)
	}
	return dir
}

func TestLoadPreferencesMissing(t *testing.T) {
	prefs, err := LoadPreferences(initDir(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reflect.DeepEqual(prefs, DefaultPreferences()) {
		t.Errorf("expected defaults, got %+v", prefs)
	}
	if prefs.WIPThreshold != 10 || prefs.StaleAgeDays != 7 || prefs.TimeRange.Preset != analytics.Preset7d {
		t.Errorf("unexpected defaults %+v", prefs)
	}
}

func TestSaveAndLoadPreferences(t *testing.T) {
	dir := initDir(t)
	prefs := DefaultPreferences()
	prefs.SelectedProjectIDs = []string{"p1", "p2"}
	prefs.TimeRange = analytics.TimeRange{Preset: analytics.PresetCustom, From: "2025-01-01", To: "2025-01-31"}
	prefs.WIPThreshold = 12
	prefs.BlockedMode = analytics.BlockedCurrent

	if err := SavePreferences(dir, prefs); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadPreferences(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, prefs) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, prefs)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".flowcraft", "preferences.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected yaml content")
	}
}

func TestSavePreferencesNil(t *testing.T) {
	if err := SavePreferences(initDir(t), nil); err == nil {
		t.Fatal("expected error for nil preferences")
	}
}

func TestLoadPreferencesPartialFile(t *testing.T) {
	dir := initDir(t)
	content := "wip_threshold: 4\n"
	if err := os.WriteFile(filepath.Join(dir, ".flowcraft", "preferences.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	prefs, err := LoadPreferences(dir)
	if err != nil {
		t.Fatal(err)
	}
	if prefs.WIPThreshold != 4 || prefs.StaleAgeDays != 7 || prefs.RefreshSchedule != DefaultRefreshSchedule {
		t.Errorf("unexpected %+v", prefs)
	}
}

func TestLoadPreferencesInvalid(t *testing.T) {
	dir := initDir(t)
	content := "wip_threshold: -1\nblocked_mode: sometimes\n"
	if err := os.WriteFile(filepath.Join(dir, ".flowcraft", "preferences.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadPreferences(dir)
	var verr *tracker.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 2 {
		t.Errorf("expected 2 problems, got %v", verr.Problems)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FLOWCRAFT_LOG_LEVEL":      "debug",
		"FLOWCRAFT_TIME_RANGE":     "30d",
		"FLOWCRAFT_PROJECTS":       "p1, p3,",
		"FLOWCRAFT_WIP_THRESHOLD":  "15",
		"FLOWCRAFT_STALE_AGE_DAYS": "3",
		"FLOWCRAFT_BLOCKED_MODE":   "current",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	prefs := DefaultPreferences()
	if err := applyEnv(prefs, lookup); err != nil {
		t.Fatal(err)
	}
	if prefs.LogLevel != "debug" || prefs.TimeRange.Preset != analytics.Preset30d {
		t.Errorf("string overrides not applied: %+v", prefs)
	}
	if !reflect.DeepEqual(prefs.SelectedProjectIDs, []string{"p1", "p3"}) {
		t.Errorf("projects = %v", prefs.SelectedProjectIDs)
	}
	if prefs.WIPThreshold != 15 || prefs.StaleAgeDays != 3 || prefs.BlockedMode != analytics.BlockedCurrent {
		t.Errorf("numeric overrides not applied: %+v", prefs)
	}

	env["FLOWCRAFT_WIP_THRESHOLD"] = "lots"
	if err := applyEnv(DefaultPreferences(), lookup); err == nil {
		t.Error("expected error for non-numeric threshold")
	}
}

func TestLoadPreferencesEnvOverride(t *testing.T) {
	t.Setenv("FLOWCRAFT_WIP_THRESHOLD", "20")
	prefs, err := LoadPreferences(initDir(t))
	if err != nil {
		t.Fatal(err)
	}
	if prefs.WIPThreshold != 20 {
		t.Errorf("WIPThreshold = %d, want 20", prefs.WIPThreshold)
	}
}

func TestPreferencesSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantOld string
		wantErr bool
	}{
		{"wip_threshold", "12", "10", false},
		{"stale_age_days", "14", "7", false},
		{"time_range", "14d", "7d", false},
		{"time_range", "custom", "7d", false},
		{"time_range_from", "2025-01-01", "", false},
		{"projects", "p1,p2", "", false},
		{"blocked_mode", "current", "ever", false},
		{"refresh_schedule", "*/5 * * * *", DefaultRefreshSchedule, false},
		{"wip_threshold", "many", "10", true},
		{"wip_threshold", "-3", "10", true},
		{"time_range", "1y", "7d", true},
		{"time_range_to", "tomorrow", "", true},
		{"refresh_schedule", "whenever", DefaultRefreshSchedule, true},
		{"color", "blue", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			prefs := DefaultPreferences()
			old, err := prefs.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set error = %v, wantErr %v", err, tt.wantErr)
			}
			if old != tt.wantOld {
				t.Errorf("old = %q, want %q", old, tt.wantOld)
			}
			if !tt.wantErr {
				got, _ := prefs.Get(tt.key)
				if tt.key != "projects" && got != tt.value {
					t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.value)
				}
			}
		})
	}
}

func TestPreferenceKeysResolvable(t *testing.T) {
	prefs := DefaultPreferences()
	for _, key := range PreferenceKeys {
		if _, err := prefs.Get(key); err != nil {
			t.Errorf("Get(%s): %v", key, err)
		}
	}
}

func TestSettings(t *testing.T) {
	prefs := DefaultPreferences()
	if !reflect.DeepEqual(prefs.Settings(), analytics.DefaultSettings()) {
		t.Errorf("Settings() = %+v", prefs.Settings())
	}
}

func TestLoadPreferencesWebhooks(t *testing.T) {
	dir := initDir(t)
	data := `webhooks:
  - name: chat
    url: https://hooks.example.com/flowcraft
    secret: s3cret
    events: [sprint_completed, issue_status_changed]
    retry_delay: 250ms
`
	if err := os.WriteFile(filepath.Join(dir, ".flowcraft", "preferences.yaml"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	prefs, err := LoadPreferences(dir)
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if len(prefs.Webhooks) != 1 {
		t.Fatalf("expected one webhook, got %+v", prefs.Webhooks)
	}
	wh := prefs.Webhooks[0]
	if wh.Name != "chat" || wh.Secret != "s3cret" || len(wh.Events) != 2 {
		t.Errorf("webhook = %+v", wh)
	}
	if wh.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry delay = %v", wh.RetryDelay)
	}
}

func TestValidateWebhooks(t *testing.T) {
	tests := []struct {
		name     string
		webhooks []WebhookEndpoint
		wantErr  bool
	}{
		{"valid", []WebhookEndpoint{{Name: "a", URL: "http://localhost:9000/hook"}}, false},
		{"missing name", []WebhookEndpoint{{URL: "https://example.com"}}, true},
		{"relative url", []WebhookEndpoint{{Name: "a", URL: "/hook"}}, true},
		{"ftp url", []WebhookEndpoint{{Name: "a", URL: "ftp://example.com"}}, true},
		{"duplicate", []WebhookEndpoint{{Name: "a", URL: "https://x.io"}, {Name: "a", URL: "https://y.io"}}, true},
		{"slack format", []WebhookEndpoint{{Name: "a", URL: "https://hooks.slack.com/x", Format: WebhookFormatSlack}}, false},
		{"unknown format", []WebhookEndpoint{{Name: "a", URL: "https://x.io", Format: "xml"}}, true},
		{"negative retries", []WebhookEndpoint{{Name: "a", URL: "https://x.io", MaxRetries: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := DefaultPreferences()
			prefs.Webhooks = tt.webhooks
			err := prefs.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, tracker.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
}
