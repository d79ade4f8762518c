package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Workspaces implements store.Workspaces
var _ store.Workspaces = (*Workspaces)(nil)

// Workspaces implements store.Workspaces using GORM
type Workspaces struct {
	db *gorm.DB
}

// NewWorkspaces creates a new Workspaces store
func NewWorkspaces(db *gorm.DB) *Workspaces {
	return &Workspaces{db: db}
}

// EnsureDefault lazily creates the default workspace. First caller wins the
// insert; losers fall through to the re-read.
func (s *Workspaces) EnsureDefault() (*model.Workspace, error) {
	existing, err := s.GetBySlug(model.DefaultWorkspaceSlug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrWorkspaceNotFound) {
		return nil, err
	}

	workspace := &model.Workspace{
		Slug:     model.DefaultWorkspaceSlug,
		Name:     model.DefaultWorkspaceName,
		Settings: model.DefaultWorkspaceSettings(),
	}
	if err := s.db.Create(workspace).Error; err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	return s.GetBySlug(model.DefaultWorkspaceSlug)
}

func (s *Workspaces) Create(workspace *model.Workspace) error {
	err := s.db.Create(workspace).Error
	if isUniqueViolation(err) {
		return store.ErrWorkspaceExists
	}
	return err
}

func (s *Workspaces) GetByID(id string) (*model.Workspace, error) {
	var workspace model.Workspace
	tx := s.db.Where("id = ?", id).First(&workspace)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrWorkspaceNotFound
		}
		return nil, tx.Error
	}
	return &workspace, nil
}

func (s *Workspaces) GetBySlug(slug string) (*model.Workspace, error) {
	var workspace model.Workspace
	tx := s.db.Where("slug = ?", slug).First(&workspace)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrWorkspaceNotFound
		}
		return nil, tx.Error
	}
	return &workspace, nil
}

func (s *Workspaces) UpdateSettings(id string, settings model.WorkspaceSettings) error {
	tx := s.db.Model(&model.Workspace{}).Where("id = ?", id).Updates(map[string]interface{}{
		"default_workspace_role": settings.DefaultWorkspaceRole,
		"default_project_role":   settings.DefaultProjectRole,
		"referencing_enabled":    settings.ReferencingEnabled,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrWorkspaceNotFound
	}
	return nil
}
