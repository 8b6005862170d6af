package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString accepts a JSON string or an array of strings, which is joined
// with commas. Clients disagree on how to send lists.
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*fs = FlexString(strings.Join(list, ","))
		return nil
	}
	return fmt.Errorf("expected string or string array, got %s", string(data))
}

// ScopeArgs narrows a metrics tool. Empty fields fall back to the stored
// preferences.
type ScopeArgs struct {
	Range    string     `json:"range,omitempty" jsonschema:"description=Time range preset: 7d, 14d, 30d or custom"`
	From     string     `json:"from,omitempty" jsonschema:"description=Custom range start (RFC 3339 or YYYY-MM-DD)"`
	To       string     `json:"to,omitempty" jsonschema:"description=Custom range end (RFC 3339 or YYYY-MM-DD)"`
	Projects FlexString `json:"projects,omitempty" jsonschema:"description=Comma-separated project IDs to include"`
	Teams    FlexString `json:"teams,omitempty" jsonschema:"description=Comma-separated team IDs to include"`
}

type MoveIssueArgs struct {
	IssueID string `json:"issue_id" jsonschema:"required,description=Issue identifier such as TSK-001"`
	Status  string `json:"status" jsonschema:"required,description=Target status: Todo, In Progress, In Review or Done"`
}
