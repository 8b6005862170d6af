package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
	"github.com/felixgeelhaar/flowcraft/pkg/storage"
)

const (
	DefaultServeAddr       = "127.0.0.1:8787"
	DefaultRefreshSchedule = "@every 1m"
	DefaultLogLevel        = "info"
)

// Preferences are the per-workspace dashboard settings kept in
// .flowcraft/preferences.yaml.
type Preferences struct {
	SelectedProjectIDs []string              `yaml:"selected_project_ids,omitempty"`
	SelectedTeamIDs    []string              `yaml:"selected_team_ids,omitempty"`
	TimeRange          analytics.TimeRange   `yaml:"dashboard_time_range"`
	WIPThreshold       int                   `yaml:"wip_threshold"`
	StaleAgeDays       int                   `yaml:"stale_age_days"`
	WorkloadTopN       int                   `yaml:"workload_top_n"`
	VelocityLimit      int                   `yaml:"velocity_limit"`
	BlockedMode        analytics.BlockedMode `yaml:"blocked_mode"`
	LogLevel           string                `yaml:"log_level"`
	LogFormat          string                `yaml:"log_format,omitempty"`
	ServeAddr          string                `yaml:"serve_addr"`
	RefreshSchedule    string                `yaml:"refresh_schedule"`
	Webhooks           []WebhookEndpoint     `yaml:"webhooks,omitempty"`
}

// Webhook payload formats.
const (
	WebhookFormatJSON  = "json"
	WebhookFormatSlack = "slack"
)

// WebhookEndpoint receives telemetry events. An empty Events list matches
// every event.
type WebhookEndpoint struct {
	Name       string        `yaml:"name"`
	URL        string        `yaml:"url"`
	Format     string        `yaml:"format,omitempty"`
	Secret     string        `yaml:"secret,omitempty"`
	Events     []string      `yaml:"events,omitempty"`
	Disabled   bool          `yaml:"disabled,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`
}

// DefaultPreferences returns the settings a fresh workspace starts with.
func DefaultPreferences() *Preferences {
	s := analytics.DefaultSettings()
	return &Preferences{
		TimeRange:       analytics.TimeRange{Preset: analytics.Preset7d},
		WIPThreshold:    s.WIPThreshold,
		StaleAgeDays:    s.StaleAgeDays,
		WorkloadTopN:    s.WorkloadTopN,
		VelocityLimit:   s.VelocityLimit,
		BlockedMode:     s.BlockedMode,
		LogLevel:        DefaultLogLevel,
		ServeAddr:       DefaultServeAddr,
		RefreshSchedule: DefaultRefreshSchedule,
	}
}

// Settings converts the thresholds into engine settings.
func (p *Preferences) Settings() analytics.Settings {
	return analytics.Settings{
		WIPThreshold:  p.WIPThreshold,
		StaleAgeDays:  p.StaleAgeDays,
		WorkloadTopN:  p.WorkloadTopN,
		VelocityLimit: p.VelocityLimit,
		BlockedMode:   p.BlockedMode,
	}
}

// Validate reports every out-of-range field at once.
func (p *Preferences) Validate() error {
	var problems []string
	if !p.TimeRange.Preset.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown time range preset %q", p.TimeRange.Preset))
	}
	for _, bound := range [][2]string{{"from", p.TimeRange.From}, {"to", p.TimeRange.To}} {
		if _, ok := tracker.ParseTimestamp(bound[1]); bound[1] != "" && !ok {
			problems = append(problems, fmt.Sprintf("time range %s %q is not a timestamp", bound[0], bound[1]))
		}
	}
	if p.WIPThreshold < 0 {
		problems = append(problems, "wip_threshold must not be negative")
	}
	if p.StaleAgeDays < 0 {
		problems = append(problems, "stale_age_days must not be negative")
	}
	if p.WorkloadTopN < 0 || p.VelocityLimit < 0 {
		problems = append(problems, "list limits must not be negative")
	}
	if !p.BlockedMode.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown blocked_mode %q", p.BlockedMode))
	}
	if p.RefreshSchedule != "" {
		if _, err := ParseSchedule(p.RefreshSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("refresh_schedule: %v", err))
		}
	}
	names := make(map[string]bool, len(p.Webhooks))
	for i, wh := range p.Webhooks {
		if wh.Name == "" {
			problems = append(problems, fmt.Sprintf("webhooks[%d]: name is required", i))
		} else if names[wh.Name] {
			problems = append(problems, fmt.Sprintf("webhook %q is defined twice", wh.Name))
		}
		names[wh.Name] = true
		if u, err := url.Parse(wh.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("webhook %q: url must be an absolute http(s) URL", wh.Name))
		}
		if wh.Format != "" && wh.Format != WebhookFormatJSON && wh.Format != WebhookFormatSlack {
			problems = append(problems, fmt.Sprintf("webhook %q: unknown format %q", wh.Name, wh.Format))
		}
		if wh.MaxRetries < 0 || wh.RetryDelay < 0 {
			problems = append(problems, fmt.Sprintf("webhook %q: retries must not be negative", wh.Name))
		}
	}
	if len(problems) > 0 {
		return &tracker.ValidationError{Problems: problems}
	}
	return nil
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or an @-descriptor.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return scheduleParser.Parse(spec)
}

// SchedulerParser exposes the parser so schedulers accept the same specs
// preferences were validated with.
func SchedulerParser() cron.Parser {
	return scheduleParser
}

// LoadPreferences reads preferences.yaml on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func LoadPreferences(root string) (*Preferences, error) {
	prefs, err := LoadPreferencesFile(root)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(prefs, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return prefs, nil
}

// LoadPreferencesFile reads preferences.yaml without environment overrides,
// for callers that write the result back.
func LoadPreferencesFile(root string) (*Preferences, error) {
	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.PreferencesFile)
	if err != nil {
		return nil, err
	}

	prefs := DefaultPreferences()
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences validates and writes preferences.yaml.
func SavePreferences(root string, prefs *Preferences) error {
	if prefs == nil {
		return fmt.Errorf("preferences are nil")
	}
	if err := prefs.Validate(); err != nil {
		return err
	}

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.PreferencesFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

type lookupFunc func(string) (string, bool)

// applyEnv overlays FLOWCRAFT_* variables.
func applyEnv(p *Preferences, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = SplitList(v)
		}
	}

	str("FLOWCRAFT_LOG_LEVEL", &p.LogLevel)
	str("FLOWCRAFT_LOG_FORMAT", &p.LogFormat)
	str("FLOWCRAFT_SERVE_ADDR", &p.ServeAddr)
	str("FLOWCRAFT_REFRESH_SCHEDULE", &p.RefreshSchedule)

	var preset, mode string
	str("FLOWCRAFT_TIME_RANGE", &preset)
	if preset != "" {
		p.TimeRange.Preset = analytics.Preset(preset)
	}
	str("FLOWCRAFT_BLOCKED_MODE", &mode)
	if mode != "" {
		p.BlockedMode = analytics.BlockedMode(mode)
	}

	list("FLOWCRAFT_PROJECTS", &p.SelectedProjectIDs)
	list("FLOWCRAFT_TEAMS", &p.SelectedTeamIDs)

	if err := num("FLOWCRAFT_WIP_THRESHOLD", &p.WIPThreshold); err != nil {
		return err
	}
	return num("FLOWCRAFT_STALE_AGE_DAYS", &p.StaleAgeDays)
}

// SplitList parses a comma separated flag or env value.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Keys accepted by Set, in display order.
var PreferenceKeys = []string{
	"time_range", "time_range_from", "time_range_to",
	"projects", "teams",
	"wip_threshold", "stale_age_days", "workload_top_n", "velocity_limit", "blocked_mode",
	"log_level", "serve_addr", "refresh_schedule",
}

// Get returns the string form of a preference.
func (p *Preferences) Get(key string) (string, error) {
	switch key {
	case "time_range":
		return string(p.TimeRange.Preset), nil
	case "time_range_from":
		return p.TimeRange.From, nil
	case "time_range_to":
		return p.TimeRange.To, nil
	case "projects":
		return strings.Join(p.SelectedProjectIDs, ","), nil
	case "teams":
		return strings.Join(p.SelectedTeamIDs, ","), nil
	case "wip_threshold":
		return strconv.Itoa(p.WIPThreshold), nil
	case "stale_age_days":
		return strconv.Itoa(p.StaleAgeDays), nil
	case "workload_top_n":
		return strconv.Itoa(p.WorkloadTopN), nil
	case "velocity_limit":
		return strconv.Itoa(p.VelocityLimit), nil
	case "blocked_mode":
		return string(p.BlockedMode), nil
	case "log_level":
		return p.LogLevel, nil
	case "serve_addr":
		return p.ServeAddr, nil
	case "refresh_schedule":
		return p.RefreshSchedule, nil
	}
	return "", fmt.Errorf("unknown preference %q", key)
}

// Set parses value into the named preference and validates the result.
// The previous value is returned.
func (p *Preferences) Set(key, value string) (string, error) {
	old, err := p.Get(key)
	if err != nil {
		return "", err
	}

	atoi := func(dst *int) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	switch key {
	case "time_range":
		p.TimeRange.Preset = analytics.Preset(value)
	case "time_range_from":
		p.TimeRange.From = value
	case "time_range_to":
		p.TimeRange.To = value
	case "projects":
		p.SelectedProjectIDs = SplitList(value)
	case "teams":
		p.SelectedTeamIDs = SplitList(value)
	case "wip_threshold":
		err = atoi(&p.WIPThreshold)
	case "stale_age_days":
		err = atoi(&p.StaleAgeDays)
	case "workload_top_n":
		err = atoi(&p.WorkloadTopN)
	case "velocity_limit":
		err = atoi(&p.VelocityLimit)
	case "blocked_mode":
		p.BlockedMode = analytics.BlockedMode(value)
	case "log_level":
		p.LogLevel = value
	case "serve_addr":
		p.ServeAddr = value
	case "refresh_schedule":
		p.RefreshSchedule = value
	}
	if err != nil {
		return old, err
	}
	return old, p.Validate()
}
