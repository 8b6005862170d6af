package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var transErr *tracker.TransitionError
	if errors.As(err, &transErr) {
		next := tracker.NextStatuses(transErr.From)
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = fmt.Sprintf("%q", s)
		}
		return NewCLIError(
			"status change not allowed",
			fmt.Sprintf("Issue '%s' is '%s'. It can move to %s", transErr.IssueID, transErr.From, strings.Join(names, " or ")),
			err,
		)
	}

	var activeErr *tracker.ActiveSprintError
	if errors.As(err, &activeErr) {
		return NewCLIError(
			"another sprint is already active",
			fmt.Sprintf("Complete sprint '%s' first with 'flowcraft sprint complete %s'", activeErr.ActiveID, activeErr.ActiveID),
			err,
		)
	}

	switch {
	case errors.Is(err, tracker.ErrWorkspaceNotInitialized):
		return NewCLIError("workspace not initialized", "Run 'flowcraft init' to create .flowcraft/workspace.json", err)
	case errors.Is(err, tracker.ErrIssueNotFound):
		return NewCLIError("issue not found", "Run 'flowcraft issue list' to see issue IDs", err)
	case errors.Is(err, tracker.ErrSprintNotFound):
		return NewCLIError("sprint not found", "Run 'flowcraft sprint list' to see sprint IDs", err)
	case errors.Is(err, application.ErrUnknownMetric):
		return NewCLIError("unknown metric", fmt.Sprintf("Use one of: %s", strings.Join(application.MetricNames, ", ")), err)
	case errors.Is(err, tracker.ErrInvalidInput):
		return NewCLIError("invalid input", "Check the command arguments with --help", err)
	}

	var conflict *tracker.ConflictError
	if errors.As(err, &conflict) {
		return NewCLIError("workspace changed on disk", "Retry the command", err)
	}

	return err
}
