package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrProjectNotFound is returned when a project doesn't exist.
var ErrProjectNotFound = errors.New("project not found")

// ErrProjectExists is returned when a project slug is already taken.
var ErrProjectExists = errors.New("project already exists")

// Projects abstracts project registry operations.
type Projects interface {
	// Create inserts a project. Returns ErrProjectExists on a duplicate slug.
	Create(project *model.Project) error

	// GetBySlug retrieves a project by workspace and slug.
	// Returns ErrProjectNotFound if it doesn't exist.
	GetBySlug(workspaceID, slug string) (*model.Project, error)

	// GetByID retrieves a project by id.
	GetByID(id string) (*model.Project, error)

	// List returns all projects in a workspace ordered by slug.
	List(workspaceID string) ([]model.Project, error)

	// Delete removes a project. Returns ErrProjectNotFound if absent.
	Delete(id string) error
}
