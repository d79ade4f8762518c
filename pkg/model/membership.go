package model

import "time"

// WorkspaceMembership assigns a workspace role to a user, unique per
// (workspace, username).
type WorkspaceMembership struct {
	WorkspaceID   string        `gorm:"column:workspace_id;primaryKey"`
	Username      string        `gorm:"column:username;primaryKey"`
	WorkspaceRole WorkspaceRole `gorm:"column:workspace_role"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (WorkspaceMembership) TableName() string {
	return "workspace_memberships"
}

// ProjectMembership assigns a project role to a user or group, unique per
// (workspace, project, subject_type, subject_id). For user subjects the
// subject id is the username; for groups it is the group id.
type ProjectMembership struct {
	WorkspaceID string      `gorm:"column:workspace_id;primaryKey"`
	ProjectID   string      `gorm:"column:project_id;primaryKey"`
	SubjectType SubjectType `gorm:"column:subject_type;primaryKey"`
	SubjectID   string      `gorm:"column:subject_id;primaryKey"`
	ProjectRole ProjectRole `gorm:"column:project_role"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProjectMembership) TableName() string {
	return "project_memberships"
}
