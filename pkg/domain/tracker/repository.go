package tracker

import "context"

// WorkspaceRepository loads and stores the workspace document.
// SaveWorkspace rejects a workspace whose Version no longer matches the
// stored one with a *ConflictError.
type WorkspaceRepository interface {
	LoadWorkspace(ctx context.Context) (*Workspace, error)
	SaveWorkspace(ctx context.Context, w *Workspace) error
}
