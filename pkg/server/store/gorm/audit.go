package gorm

import (
	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure AuditEvents implements store.AuditEvents
var _ store.AuditEvents = (*AuditEvents)(nil)

// AuditEvents implements store.AuditEvents using GORM
type AuditEvents struct {
	db *gorm.DB
}

// NewAuditEvents creates a new AuditEvents store
func NewAuditEvents(db *gorm.DB) *AuditEvents {
	return &AuditEvents{db: db}
}

func (s *AuditEvents) Write(event *model.AuditEvent) error {
	return s.db.Create(event).Error
}

func (s *AuditEvents) Query(filter store.AuditFilter) ([]model.AuditEvent, error) {
	query := s.db.Order("ts desc")
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.ConfigID != "" {
		query = query.Where("config_id = ?", filter.ConfigID)
	}
	if filter.Since != nil {
		query = query.Where("ts >= ?", *filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var events []model.AuditEvent
	tx := query.Limit(limit).Find(&events)
	return events, tx.Error
}
