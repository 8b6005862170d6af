package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
		wantCLI  bool
	}{
		{
			name: "nil returns nil",
			err:  nil,
		},
		{
			name:     "ErrWorkspaceNotInitialized",
			err:      fmt.Errorf("load: %w", tracker.ErrWorkspaceNotInitialized),
			wantHint: "Run 'flowcraft init' to create .flowcraft/workspace.json",
			wantCLI:  true,
		},
		{
			name:     "ErrIssueNotFound",
			err:      fmt.Errorf("%w: TSK-009", tracker.ErrIssueNotFound),
			wantHint: "Run 'flowcraft issue list' to see issue IDs",
			wantCLI:  true,
		},
		{
			name:     "ErrSprintNotFound",
			err:      tracker.ErrSprintNotFound,
			wantHint: "Run 'flowcraft sprint list' to see sprint IDs",
			wantCLI:  true,
		},
		{
			name:     "ValidationError",
			err:      &tracker.ValidationError{Problems: []string{"title is required"}},
			wantHint: "Check the command arguments with --help",
			wantCLI:  true,
		},
		{
			name:     "ActiveSprintError",
			err:      &tracker.ActiveSprintError{SprintID: "sprint-b", ActiveID: "sprint-a"},
			wantHint: "Complete sprint 'sprint-a' first with 'flowcraft sprint complete sprint-a'",
			wantCLI:  true,
		},
		{
			name:     "TransitionError",
			err:      &tracker.TransitionError{IssueID: "TSK-001", From: tracker.StatusTodo, To: tracker.StatusDone},
			wantHint: `Issue 'TSK-001' is 'Todo'. It can move to "In Progress"`,
			wantCLI:  true,
		},
		{
			name:     "ConflictError",
			err:      &tracker.ConflictError{Expected: 2, Actual: 3},
			wantHint: "Retry the command",
			wantCLI:  true,
		},
		{
			name:    "unknown metric",
			err:     fmt.Errorf("%w %q", application.ErrUnknownMetric, "lead-time"),
			wantCLI: true,
		},
		{
			name: "unmapped error passes through",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)
			if tt.err == nil {
				if result != nil {
					t.Fatal("expected nil")
				}
				return
			}
			if !tt.wantCLI {
				if result != tt.err {
					t.Fatal("unmapped error should pass through unchanged")
				}
				return
			}
			var cliErr *CLIError
			if !errors.As(result, &cliErr) {
				t.Fatalf("expected CLIError, got %T", result)
			}
			if tt.wantHint != "" && cliErr.Hint != tt.wantHint {
				t.Fatalf("hint = %q, want %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(cliErr, tt.err) {
				t.Fatal("CLIError should wrap original error")
			}
		})
	}
}
