package store

import (
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// AuditFilter narrows an audit query. Zero fields are ignored.
type AuditFilter struct {
	ProjectID string
	ConfigID  string
	Since     *time.Time
	Limit     int
}

// AuditEvents abstracts the append-only audit trail.
type AuditEvents interface {
	// Write appends one event.
	Write(event *model.AuditEvent) error

	// Query returns events newest-first, filtered and limited.
	Query(filter AuditFilter) ([]model.AuditEvent, error)
}
