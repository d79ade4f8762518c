package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultWorkspaceSlug names the workspace that is lazily created on first
// use. Exactly one row with this slug exists.
const (
	DefaultWorkspaceSlug = "default"
	DefaultWorkspaceName = "Default Workspace"
)

// WorkspaceSettings are the tunable workspace defaults.
type WorkspaceSettings struct {
	DefaultWorkspaceRole WorkspaceRole `gorm:"column:default_workspace_role" json:"defaultWorkspaceRole"`
	DefaultProjectRole   ProjectRole   `gorm:"column:default_project_role" json:"defaultProjectRole"`
	ReferencingEnabled   bool          `gorm:"column:referencing_enabled" json:"referencingEnabled"`
}

// DefaultWorkspaceSettings returns the settings applied to a new workspace.
func DefaultWorkspaceSettings() WorkspaceSettings {
	return WorkspaceSettings{
		DefaultWorkspaceRole: WorkspaceRoleViewer,
		DefaultProjectRole:   ProjectRoleNone,
		ReferencingEnabled:   true,
	}
}

// Workspace is the tenant root. All projects, memberships and groups hang off
// a workspace.
type Workspace struct {
	ID        string            `gorm:"column:id;primaryKey"`
	Slug      string            `gorm:"column:slug;uniqueIndex"`
	Name      string            `gorm:"column:name"`
	Settings  WorkspaceSettings `gorm:"embedded"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

func (w *Workspace) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
