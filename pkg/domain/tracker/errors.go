package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIssueNotFound indicates the issue does not exist in the workspace.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrSprintNotFound indicates the sprint does not exist in the workspace.
	ErrSprintNotFound = errors.New("sprint not found")

	// ErrActiveSprintExists indicates another sprint is already Active.
	ErrActiveSprintExists = errors.New("another sprint is already active")

	// ErrInvalidTransition indicates the requested status move is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrWorkspaceNotInitialized indicates no workspace file exists yet.
	ErrWorkspaceNotInitialized = errors.New("workspace not initialized")

	// ErrInvalidInput indicates a record failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// TransitionError provides details about a rejected status move.
type TransitionError struct {
	IssueID string
	From    IssueStatus
	To      IssueStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move issue %s from %q to %q", e.IssueID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ActiveSprintError names the sprint that already holds the Active slot.
type ActiveSprintError struct {
	SprintID string
	ActiveID string
}

func (e *ActiveSprintError) Error() string {
	return fmt.Sprintf("cannot start sprint %s: sprint %s is already active", e.SprintID, e.ActiveID)
}

func (e *ActiveSprintError) Is(target error) bool {
	return target == ErrActiveSprintExists
}

// ValidationError collects field-level problems for a record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConflictError is returned when a save fails due to a version mismatch.
type ConflictError struct {
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: expected workspace version %d but found %d; reload and retry", e.Expected, e.Actual)
}
