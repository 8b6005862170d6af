package tracker

import (
	"errors"
	"testing"
	"time"
)

func TestWorkspace_NextIssueID(t *testing.T) {
	tests := []struct {
		name   string
		issues []Issue
		want   string
	}{
		{"empty", nil, "TSK-001"},
		{"sequential", []Issue{{ID: "TSK-001"}, {ID: "TSK-002"}}, "TSK-003"},
		{"gap", []Issue{{ID: "TSK-010"}, {ID: "TSK-002"}}, "TSK-011"},
		{"foreign ids ignored", []Issue{{ID: "BUG-7"}, {ID: "TSK-004"}}, "TSK-005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Workspace{Issues: tt.issues}
			if got := w.NextIssueID(); got != tt.want {
				t.Errorf("NextIssueID() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWorkspace_IssueLookup(t *testing.T) {
	w := &Workspace{Issues: []Issue{{ID: "TSK-001", Title: "a"}}}

	issue, err := w.Issue("TSK-001")
	if err != nil {
		t.Fatal(err)
	}
	issue.Title = "changed"
	if w.Issues[0].Title != "changed" {
		t.Error("expected lookup to return a pointer into the workspace")
	}

	if _, err := w.Issue("TSK-404"); !errors.Is(err, ErrIssueNotFound) {
		t.Errorf("expected ErrIssueNotFound, got %v", err)
	}
	if err := w.RemoveIssue("TSK-001"); err != nil {
		t.Fatal(err)
	}
	if len(w.Issues) != 0 {
		t.Errorf("expected issue removed, have %d", len(w.Issues))
	}
}

func TestWorkspace_Validate(t *testing.T) {
	now := time.Now()
	valid := &Workspace{
		Issues:  []Issue{{ID: "TSK-001", Status: StatusTodo, CreatedAt: now, UpdatedAt: now}},
		Sprints: []Sprint{{ID: "s1", Status: SprintActive}, {ID: "s2", Status: SprintPlanned}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid workspace, got %v", err)
	}

	invalid := &Workspace{
		Issues: []Issue{
			{ID: "TSK-001", Status: "Blocked"},
			{ID: "TSK-001", Status: StatusDone},
		},
		Sprints: []Sprint{{ID: "s1", Status: SprintActive}, {ID: "s2", Status: SprintActive}},
	}
	err := invalid.Validate()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) != 3 {
		t.Errorf("expected 3 problems, got %v", err)
	}
}

func TestHistoryEntry_Time(t *testing.T) {
	tests := []struct {
		at string
		ok bool
	}{
		{"2025-01-02T00:00:00Z", true},
		{"2025-01-02T03:04:05.123Z", true},
		{"2025-01-02", true},
		{"not-a-date", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			_, ok := HistoryEntry{At: tt.at}.Time()
			if ok != tt.ok {
				t.Errorf("Time() ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestHistoryEntry_Values(t *testing.T) {
	status := HistoryEntry{Field: FieldStatus, From: "In Review", To: "Done"}
	if !status.IsTransitionTo(StatusDone) {
		t.Error("expected transition to Done")
	}
	if _, ok := status.BlockedValue(); ok {
		t.Error("status entry should not carry a blocked value")
	}

	blocked := HistoryEntry{Field: FieldBlocked, From: false, To: true}
	if v, ok := blocked.BlockedValue(); !ok || !v {
		t.Errorf("BlockedValue() = %v, %v", v, ok)
	}
	if blocked.IsTransitionTo(StatusDone) {
		t.Error("blocked entry is not a status transition")
	}
}
