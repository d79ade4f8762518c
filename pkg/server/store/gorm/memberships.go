package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Memberships implements store.Memberships
var _ store.Memberships = (*Memberships)(nil)

// Memberships implements store.Memberships using GORM
type Memberships struct {
	db *gorm.DB
}

// NewMemberships creates a new Memberships store
func NewMemberships(db *gorm.DB) *Memberships {
	return &Memberships{db: db}
}

func (s *Memberships) GetWorkspaceMembership(workspaceID, username string) (*model.WorkspaceMembership, error) {
	var membership model.WorkspaceMembership
	tx := s.db.Where("workspace_id = ? AND username = ?", workspaceID, username).First(&membership)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, tx.Error
	}
	return &membership, nil
}

func (s *Memberships) ListWorkspaceMemberships(workspaceID string) ([]model.WorkspaceMembership, error) {
	var memberships []model.WorkspaceMembership
	tx := s.db.Where("workspace_id = ?", workspaceID).Order("username").Find(&memberships)
	return memberships, tx.Error
}

func (s *Memberships) UpsertWorkspaceMembership(workspaceID, username string, role model.WorkspaceRole) (*model.WorkspaceMembership, error) {
	membership := &model.WorkspaceMembership{
		WorkspaceID:   workspaceID,
		Username:      username,
		WorkspaceRole: role,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"workspace_role", "updated_at"}),
	}).Create(membership).Error
	if err != nil {
		return nil, err
	}
	return s.GetWorkspaceMembership(workspaceID, username)
}

func (s *Memberships) RemoveWorkspaceMembership(workspaceID, username string) error {
	tx := s.db.Where("workspace_id = ? AND username = ?", workspaceID, username).
		Delete(&model.WorkspaceMembership{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrMembershipNotFound
	}
	return nil
}

func (s *Memberships) CountWorkspaceMembers(workspaceID string) (int64, error) {
	var count int64
	tx := s.db.Model(&model.WorkspaceMembership{}).Where("workspace_id = ?", workspaceID).Count(&count)
	return count, tx.Error
}

func (s *Memberships) HasWorkspaceRole(workspaceID string, role model.WorkspaceRole) (bool, error) {
	var count int64
	tx := s.db.Model(&model.WorkspaceMembership{}).
		Where("workspace_id = ? AND workspace_role = ?", workspaceID, role).
		Count(&count)
	return count > 0, tx.Error
}

func (s *Memberships) UpsertProjectMembership(m *model.ProjectMembership) (*model.ProjectMembership, error) {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "workspace_id"}, {Name: "project_id"},
			{Name: "subject_type"}, {Name: "subject_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"project_role", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}

	var membership model.ProjectMembership
	tx := s.db.Where(
		"workspace_id = ? AND project_id = ? AND subject_type = ? AND subject_id = ?",
		m.WorkspaceID, m.ProjectID, m.SubjectType, m.SubjectID,
	).First(&membership)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &membership, nil
}

func (s *Memberships) RemoveProjectMembership(workspaceID, projectID string, subjectType model.SubjectType, subjectID string) error {
	tx := s.db.Where(
		"workspace_id = ? AND project_id = ? AND subject_type = ? AND subject_id = ?",
		workspaceID, projectID, subjectType, subjectID,
	).Delete(&model.ProjectMembership{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrMembershipNotFound
	}
	return nil
}

func (s *Memberships) ListProjectMemberships(workspaceID, projectID string) ([]model.ProjectMembership, error) {
	var memberships []model.ProjectMembership
	tx := s.db.Where("workspace_id = ? AND project_id = ?", workspaceID, projectID).
		Order("subject_id").Find(&memberships)
	return memberships, tx.Error
}

func (s *Memberships) ListProjectMembershipsForSubjects(workspaceID, username string, groupIDs []string) ([]model.ProjectMembership, error) {
	query := s.db.Where("workspace_id = ?", workspaceID)
	if len(groupIDs) > 0 {
		query = query.Where(
			"(subject_type = ? AND subject_id = ?) OR (subject_type = ? AND subject_id IN ?)",
			model.SubjectUser, username, model.SubjectGroup, groupIDs,
		)
	} else {
		query = query.Where("subject_type = ? AND subject_id = ?", model.SubjectUser, username)
	}

	var memberships []model.ProjectMembership
	tx := query.Find(&memberships)
	return memberships, tx.Error
}

func (s *Memberships) RemoveAllForSubject(workspaceID string, subjectType model.SubjectType, subjectID string) error {
	return s.db.Where(
		"workspace_id = ? AND subject_type = ? AND subject_id = ?",
		workspaceID, subjectType, subjectID,
	).Delete(&model.ProjectMembership{}).Error
}
