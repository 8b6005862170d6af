package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

const workspaceSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "issues", "sprints"],
  "properties": {
    "version": { "type": "integer", "minimum": 0 },
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "status", "created_at", "updated_at"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "title": { "type": "string" },
          "status": { "enum": ["Todo", "In Progress", "In Review", "Done"] },
          "priority": { "enum": ["", "P0", "P1", "P2", "P3", "P4", "P5"] },
          "created_at": { "type": "string" },
          "updated_at": { "type": "string" },
          "history": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["field", "at"],
              "properties": {
                "field": { "type": "string" },
                "at": { "type": "string" }
              }
            }
          }
        }
      }
    },
    "sprints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "status"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "name": { "type": "string" },
          "status": { "enum": ["Planned", "Active", "Completed"] }
        }
      }
    },
    "projects": { "type": ["array", "null"] },
    "teams": { "type": ["array", "null"] },
    "users": { "type": ["array", "null"] }
  }
}`

var workspaceSchemaLoader = gojsonschema.NewStringLoader(workspaceSchemaJSON)

// validateWorkspaceDocument checks raw workspace JSON against the schema.
func validateWorkspaceDocument(data []byte) error {
	result, err := gojsonschema.Validate(workspaceSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("workspace is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &tracker.ValidationError{Problems: problems}
}

// LoadWorkspace reads workspace.json. Reads are retried; schema and domain
// validation failures are not.
func (r *FilesystemRepository) LoadWorkspace(ctx context.Context) (*tracker.Workspace, error) {
	path, err := r.ResolvePath(WorkspaceFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: run 'flowcraft init'", tracker.ErrWorkspaceNotInitialized)
	}

	retryer := retry.New[[]byte](r.retryConfig)
	data, err := retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace file: %w", err)
	}

	if err := validateWorkspaceDocument(data); err != nil {
		return nil, err
	}

	w := tracker.NewWorkspace()
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// SaveWorkspace writes the whole document. The stored version must equal
// w.Version; on success w.Version is incremented.
func (r *FilesystemRepository) SaveWorkspace(ctx context.Context, w *tracker.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}

	path, err := r.ResolvePath(WorkspaceFile)
	if err != nil {
		return err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	existing, err := os.ReadFile(path)
	if err == nil {
		var disk struct {
			Version int `json:"version"`
		}
		if jsonErr := json.Unmarshal(existing, &disk); jsonErr == nil && disk.Version != w.Version {
			return &tracker.ConflictError{Expected: w.Version, Actual: disk.Version}
		}
	}

	w.Version++
	w.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		w.Version--
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		w.Version--
		return fmt.Errorf("failed to write workspace file: %w", err)
	}
	return nil
}

// InitWorkspace creates the .flowcraft directory and an empty workspace
// unless one already exists.
func (r *FilesystemRepository) InitWorkspace(ctx context.Context) (*tracker.Workspace, error) {
	if err := r.Initialize(); err != nil {
		return nil, err
	}
	path, err := r.ResolvePath(WorkspaceFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return r.LoadWorkspace(ctx)
	}

	w := tracker.NewWorkspace()
	if err := r.SaveWorkspace(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
