package model

//go:generate go run github.com/dmarkham/enumer -type WorkspaceRole -trimprefix WorkspaceRole -transform lower -json -sql -output workspace_role.gen.go
//go:generate go run github.com/dmarkham/enumer -type ProjectRole -trimprefix ProjectRole -transform lower -json -sql -output project_role.gen.go

// WorkspaceRole is the coarse-grained role a user holds in a workspace.
// Declaration order is rank order: a later role outranks an earlier one.
type WorkspaceRole int

const (
	WorkspaceRoleViewer WorkspaceRole = iota
	WorkspaceRoleCollaborator
	WorkspaceRoleAdmin
	WorkspaceRoleOwner
)

// ProjectRole is the fine-grained role a user or group holds on one project.
// Declaration order is rank order: none < viewer < collaborator < admin.
type ProjectRole int

const (
	ProjectRoleNone ProjectRole = iota
	ProjectRoleViewer
	ProjectRoleCollaborator
	ProjectRoleAdmin
)

// MaxProjectRole returns the higher-ranked of two project roles.
func MaxProjectRole(a, b ProjectRole) ProjectRole {
	if b > a {
		return b
	}
	return a
}

// SubjectType distinguishes the holder of a project membership.
type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// Valid reports whether t is a known subject type.
func (t SubjectType) Valid() bool {
	return t == SubjectUser || t == SubjectGroup
}
