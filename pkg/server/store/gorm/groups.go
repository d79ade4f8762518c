package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Groups implements store.Groups
var _ store.Groups = (*Groups)(nil)

// Groups implements store.Groups using GORM
type Groups struct {
	db *gorm.DB
}

// NewGroups creates a new Groups store
func NewGroups(db *gorm.DB) *Groups {
	return &Groups{db: db}
}

func (s *Groups) Create(group *model.Group) error {
	err := s.db.Create(group).Error
	if isUniqueViolation(err) {
		return store.ErrGroupExists
	}
	return err
}

func (s *Groups) GetBySlug(workspaceID, slug string) (*model.Group, error) {
	var group model.Group
	tx := s.db.Where("workspace_id = ? AND slug = ?", workspaceID, slug).First(&group)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrGroupNotFound
		}
		return nil, tx.Error
	}
	return &group, nil
}

func (s *Groups) GetByID(workspaceID, id string) (*model.Group, error) {
	var group model.Group
	tx := s.db.Where("workspace_id = ? AND id = ?", workspaceID, id).First(&group)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrGroupNotFound
		}
		return nil, tx.Error
	}
	return &group, nil
}

func (s *Groups) List(workspaceID string) ([]model.Group, error) {
	var groups []model.Group
	tx := s.db.Where("workspace_id = ?", workspaceID).Order("slug").Find(&groups)
	return groups, tx.Error
}

func (s *Groups) Update(group *model.Group) error {
	return s.db.Model(&model.Group{}).
		Where("workspace_id = ? AND id = ?", group.WorkspaceID, group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
		}).Error
}

// Delete removes the group with its member and mapping rows in one
// transaction. Project memberships granted to the group are the memberships
// store's concern and are cascaded by the caller.
func (s *Groups) Delete(workspaceID, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND group_id = ?", workspaceID, id).
			Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ? AND group_id = ?", workspaceID, id).
			Delete(&model.GroupMapping{}).Error; err != nil {
			return err
		}
		res := tx.Where("workspace_id = ? AND id = ?", workspaceID, id).Delete(&model.Group{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrGroupNotFound
		}
		return nil
	})
}

func (s *Groups) ListMembers(workspaceID, groupID string) ([]model.GroupMember, error) {
	var members []model.GroupMember
	tx := s.db.Where("workspace_id = ? AND group_id = ?", workspaceID, groupID).
		Order("username").Find(&members)
	return members, tx.Error
}

func (s *Groups) AddMember(workspaceID, groupID, username string) error {
	member := &model.GroupMember{
		WorkspaceID: workspaceID,
		GroupID:     groupID,
		Username:    username,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
}

func (s *Groups) RemoveMember(workspaceID, groupID, username string) error {
	return s.db.Where(
		"workspace_id = ? AND group_id = ? AND username = ?",
		workspaceID, groupID, username,
	).Delete(&model.GroupMember{}).Error
}

func (s *Groups) ListUserGroupIDs(workspaceID, username string) ([]string, error) {
	var ids []string
	tx := s.db.Model(&model.GroupMember{}).
		Where("workspace_id = ? AND username = ?", workspaceID, username).
		Pluck("group_id", &ids)
	return ids, tx.Error
}

func (s *Groups) RemoveUserFromAllGroups(workspaceID, username string) error {
	return s.db.Where("workspace_id = ? AND username = ?", workspaceID, username).
		Delete(&model.GroupMember{}).Error
}

func (s *Groups) ListMappings(workspaceID string) ([]model.GroupMapping, error) {
	var mappings []model.GroupMapping
	tx := s.db.Where("workspace_id = ?", workspaceID).
		Order("external_group_key").Find(&mappings)
	return mappings, tx.Error
}

func (s *Groups) CreateMapping(mapping *model.GroupMapping) error {
	err := s.db.Create(mapping).Error
	if isUniqueViolation(err) {
		return store.ErrGroupMappingExists
	}
	return err
}

func (s *Groups) DeleteMapping(workspaceID, id string) error {
	res := s.db.Where("workspace_id = ? AND id = ?", workspaceID, id).
		Delete(&model.GroupMapping{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrGroupMappingNotFound
	}
	return nil
}
