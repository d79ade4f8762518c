package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Group is a named set of users that can hold project roles collectively.
type Group struct {
	ID          string    `gorm:"column:id;primaryKey"`
	WorkspaceID string    `gorm:"column:workspace_id;uniqueIndex:idx_groups_workspace_slug"`
	Slug        string    `gorm:"column:slug;uniqueIndex:idx_groups_workspace_slug"`
	Name        string    `gorm:"column:name"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Group) TableName() string {
	return "groups"
}

func (g *Group) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GroupMapping links an identity-provider group key to a group, so external
// directory sync can place users into groups. Uniqueness is per workspace,
// provider and external key.
type GroupMapping struct {
	ID               string    `gorm:"column:id;primaryKey"`
	WorkspaceID      string    `gorm:"column:workspace_id;uniqueIndex:idx_group_mappings_provider_key"`
	Provider         string    `gorm:"column:provider;uniqueIndex:idx_group_mappings_provider_key"`
	ExternalGroupKey string    `gorm:"column:external_group_key;uniqueIndex:idx_group_mappings_provider_key"`
	GroupID          string    `gorm:"column:group_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (GroupMapping) TableName() string {
	return "group_mappings"
}

func (m *GroupMapping) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// GroupMember is the join row between a group and a username.
type GroupMember struct {
	WorkspaceID string    `gorm:"column:workspace_id;primaryKey"`
	GroupID     string    `gorm:"column:group_id;primaryKey"`
	Username    string    `gorm:"column:username;primaryKey"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
