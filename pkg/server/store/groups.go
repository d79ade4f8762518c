package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrGroupNotFound is returned when a group doesn't exist.
var ErrGroupNotFound = errors.New("group not found")

// ErrGroupExists is returned when a group slug is already taken.
var ErrGroupExists = errors.New("group already exists")

// ErrGroupMappingNotFound is returned when a group mapping doesn't exist.
var ErrGroupMappingNotFound = errors.New("group mapping not found")

// ErrGroupMappingExists is returned when a provider/key pair is already
// mapped.
var ErrGroupMappingExists = errors.New("group mapping already exists")

// Groups abstracts group and group-membership storage.
type Groups interface {
	// Create inserts a group. Returns ErrGroupExists on a duplicate slug.
	Create(group *model.Group) error

	// GetBySlug retrieves a group by workspace and slug.
	// Returns ErrGroupNotFound if absent.
	GetBySlug(workspaceID, slug string) (*model.Group, error)

	// GetByID retrieves a group by workspace and id.
	GetByID(workspaceID, id string) (*model.Group, error)

	// List returns all groups of a workspace ordered by slug.
	List(workspaceID string) ([]model.Group, error)

	// Update persists name/description changes of an existing group.
	Update(group *model.Group) error

	// Delete removes a group together with its member and mapping rows.
	Delete(workspaceID, id string) error

	// ListMembers returns the members of a group ordered by username.
	ListMembers(workspaceID, groupID string) ([]model.GroupMember, error)

	// AddMember inserts a member row if it doesn't exist yet.
	AddMember(workspaceID, groupID, username string) error

	// RemoveMember removes a member row if present.
	RemoveMember(workspaceID, groupID, username string) error

	// ListUserGroupIDs returns the ids of every group the user belongs to.
	ListUserGroupIDs(workspaceID, username string) ([]string, error)

	// RemoveUserFromAllGroups removes the user from every group.
	RemoveUserFromAllGroups(workspaceID, username string) error

	// ListMappings returns the workspace's group mappings ordered by
	// external key.
	ListMappings(workspaceID string) ([]model.GroupMapping, error)

	// CreateMapping inserts a mapping. Returns ErrGroupMappingExists when
	// the provider/key pair is already mapped.
	CreateMapping(mapping *model.GroupMapping) error

	// DeleteMapping removes one mapping by id.
	// Returns ErrGroupMappingNotFound if absent.
	DeleteMapping(workspaceID, id string) error
}
