package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config is one environment of a project. Configs form a forest per project:
// each config has at most one parent, and the parent must belong to the same
// project.
type Config struct {
	ID             string    `gorm:"column:id;primaryKey"`
	ProjectID      string    `gorm:"column:project_id;uniqueIndex:idx_configs_project_slug"`
	Slug           string    `gorm:"column:slug;uniqueIndex:idx_configs_project_slug"`
	Name           string    `gorm:"column:name"`
	ParentConfigID *string   `gorm:"column:parent_config_id"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Config) TableName() string {
	return "configs"
}

func (c *Config) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
