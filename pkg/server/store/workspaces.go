package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrWorkspaceNotFound is returned when a workspace doesn't exist.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrWorkspaceExists is returned when a workspace slug is already taken.
var ErrWorkspaceExists = errors.New("workspace already exists")

// Workspaces abstracts workspace storage.
type Workspaces interface {
	// EnsureDefault returns the default workspace, creating it on first use.
	// Concurrent callers observe the same row: the insert races on the slug
	// unique index and losers re-read.
	EnsureDefault() (*model.Workspace, error)

	// Create inserts a workspace. Returns ErrWorkspaceExists on a duplicate
	// slug.
	Create(workspace *model.Workspace) error

	// GetByID retrieves a workspace by id.
	// Returns ErrWorkspaceNotFound if it doesn't exist.
	GetByID(id string) (*model.Workspace, error)

	// GetBySlug retrieves a workspace by slug.
	GetBySlug(slug string) (*model.Workspace, error)

	// UpdateSettings replaces the settings of a workspace.
	UpdateSettings(id string, settings model.WorkspaceSettings) error
}
