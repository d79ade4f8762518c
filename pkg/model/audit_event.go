package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEvent is one row of the append-only request audit trail.
type AuditEvent struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Ts         time.Time `gorm:"column:ts;index:idx_audit_ts,sort:desc"`
	ActorType  string    `gorm:"column:actor_type"`
	ActorID    string    `gorm:"column:actor_id"`
	TokenID    *string   `gorm:"column:token_id"`
	Action     string    `gorm:"column:action"`
	ProjectID  *string   `gorm:"column:project_id;index"`
	ConfigID   *string   `gorm:"column:config_id;index"`
	Method     string    `gorm:"column:method"`
	Path       string    `gorm:"column:path"`
	IP         string    `gorm:"column:ip"`
	UserAgent  string    `gorm:"column:user_agent"`
	StatusCode int       `gorm:"column:status_code"`
	LatencyMS  int64     `gorm:"column:latency_ms"`
	Reason     string    `gorm:"column:reason"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

func (e *AuditEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return nil
}
