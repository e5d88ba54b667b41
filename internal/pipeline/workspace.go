package pipeline

import (
	"fmt"
	"os"
)

// Workspace is a run-scoped scratch directory for fetched documents. It
// lives exactly as long as its run: created before document fetch, removed
// after synthesis regardless of outcome.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh scratch directory under root (the system
// temp dir when root is empty).
func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, "memoir-run-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Cleanup removes the workspace and everything under it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}
