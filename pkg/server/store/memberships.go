package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrMembershipNotFound is returned when a membership row doesn't exist.
var ErrMembershipNotFound = errors.New("membership not found")

// Memberships abstracts workspace and project role assignments.
type Memberships interface {
	// GetWorkspaceMembership retrieves one workspace membership.
	// Returns ErrMembershipNotFound if absent.
	GetWorkspaceMembership(workspaceID, username string) (*model.WorkspaceMembership, error)

	// ListWorkspaceMemberships returns all memberships of a workspace
	// ordered by username.
	ListWorkspaceMemberships(workspaceID string) ([]model.WorkspaceMembership, error)

	// UpsertWorkspaceMembership creates or updates a workspace membership.
	UpsertWorkspaceMembership(workspaceID, username string, role model.WorkspaceRole) (*model.WorkspaceMembership, error)

	// RemoveWorkspaceMembership removes one workspace membership.
	// Returns ErrMembershipNotFound if absent.
	RemoveWorkspaceMembership(workspaceID, username string) error

	// CountWorkspaceMembers counts the members of a workspace.
	CountWorkspaceMembers(workspaceID string) (int64, error)

	// HasWorkspaceRole reports whether any member holds the given role.
	HasWorkspaceRole(workspaceID string, role model.WorkspaceRole) (bool, error)

	// UpsertProjectMembership creates or updates a project membership.
	UpsertProjectMembership(m *model.ProjectMembership) (*model.ProjectMembership, error)

	// RemoveProjectMembership removes one project membership.
	// Returns ErrMembershipNotFound if absent.
	RemoveProjectMembership(workspaceID, projectID string, subjectType model.SubjectType, subjectID string) error

	// ListProjectMemberships returns the memberships of one project ordered
	// by subject id.
	ListProjectMemberships(workspaceID, projectID string) ([]model.ProjectMembership, error)

	// ListProjectMembershipsForSubjects returns every project membership
	// held by the user directly or through any of the given groups.
	ListProjectMembershipsForSubjects(workspaceID, username string, groupIDs []string) ([]model.ProjectMembership, error)

	// RemoveAllForSubject removes every project membership of one subject.
	RemoveAllForSubject(workspaceID string, subjectType model.SubjectType, subjectID string) error
}
