package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Projects implements store.Projects
var _ store.Projects = (*Projects)(nil)

// Projects implements store.Projects using GORM
type Projects struct {
	db *gorm.DB
}

// NewProjects creates a new Projects store
func NewProjects(db *gorm.DB) *Projects {
	return &Projects{db: db}
}

func (s *Projects) Create(project *model.Project) error {
	err := s.db.Create(project).Error
	if isUniqueViolation(err) {
		return store.ErrProjectExists
	}
	return err
}

func (s *Projects) GetBySlug(workspaceID, slug string) (*model.Project, error) {
	var project model.Project
	tx := s.db.Where("workspace_id = ? AND slug = ?", workspaceID, slug).First(&project)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrProjectNotFound
		}
		return nil, tx.Error
	}
	return &project, nil
}

func (s *Projects) GetByID(id string) (*model.Project, error) {
	var project model.Project
	tx := s.db.Where("id = ?", id).First(&project)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrProjectNotFound
		}
		return nil, tx.Error
	}
	return &project, nil
}

func (s *Projects) List(workspaceID string) ([]model.Project, error) {
	var projects []model.Project
	tx := s.db.Where("workspace_id = ?", workspaceID).Order("slug").Find(&projects)
	return projects, tx.Error
}

func (s *Projects) Delete(id string) error {
	tx := s.db.Where("id = ?", id).Delete(&model.Project{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrProjectNotFound
	}
	return nil
}
