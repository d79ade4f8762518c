package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Configs implements store.Configs
var _ store.Configs = (*Configs)(nil)

// Configs implements store.Configs using GORM
type Configs struct {
	db *gorm.DB
}

// NewConfigs creates a new Configs store
func NewConfigs(db *gorm.DB) *Configs {
	return &Configs{db: db}
}

func (s *Configs) Create(config *model.Config) error {
	err := s.db.Create(config).Error
	if isUniqueViolation(err) {
		return store.ErrConfigExists
	}
	return err
}

func (s *Configs) GetByID(id string) (*model.Config, error) {
	var config model.Config
	tx := s.db.Where("id = ?", id).First(&config)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrConfigNotFound
		}
		return nil, tx.Error
	}
	return &config, nil
}

func (s *Configs) GetBySlug(projectID, slug string) (*model.Config, error) {
	var config model.Config
	tx := s.db.Where("project_id = ? AND slug = ?", projectID, slug).First(&config)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrConfigNotFound
		}
		return nil, tx.Error
	}
	return &config, nil
}

func (s *Configs) List(projectID string) ([]model.Config, error) {
	var configs []model.Config
	tx := s.db.Where("project_id = ?", projectID).Order("slug").Find(&configs)
	return configs, tx.Error
}

func (s *Configs) Delete(id string) error {
	tx := s.db.Where("id = ?", id).Delete(&model.Config{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrConfigNotFound
	}
	return nil
}
