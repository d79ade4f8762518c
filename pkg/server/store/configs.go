package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrConfigNotFound is returned when a config doesn't exist.
var ErrConfigNotFound = errors.New("config not found")

// ErrConfigExists is returned when a config slug is already taken within its
// project.
var ErrConfigExists = errors.New("config already exists")

// Configs abstracts the config registry. The secrets engine walks parent
// pointers through this interface and the reference resolver reaches it via
// injected lookups.
type Configs interface {
	// Create inserts a config. Returns ErrConfigExists on a duplicate slug.
	Create(config *model.Config) error

	// GetByID retrieves a config by id.
	// Returns ErrConfigNotFound if it doesn't exist.
	GetByID(id string) (*model.Config, error)

	// GetBySlug retrieves a config by project and slug.
	GetBySlug(projectID, slug string) (*model.Config, error)

	// List returns all configs of a project ordered by slug.
	List(projectID string) ([]model.Config, error)

	// Delete removes a config. Returns ErrConfigNotFound if absent.
	Delete(id string) error
}
