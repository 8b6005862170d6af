package sdk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoContent is returned when a tool result contains no content items.
var ErrNoContent = errors.New("flowcraft: empty tool result")

// ToolError is returned when a tool call returns an error result.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("flowcraft: tool %s: %s", e.Tool, e.Message)
}

// NotInitialized reports whether the server rejected the call because the
// workspace has no .flowcraft directory yet.
func (e *ToolError) NotInitialized() bool {
	return strings.HasPrefix(e.Message, "Workspace not initialized")
}
