package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenType distinguishes who a token acts as.
type TokenType string

const (
	TokenTypePersonal TokenType = "personal"
	TokenTypeService  TokenType = "service"
)

// TokenPurpose distinguishes interactive session tokens from long-lived API
// tokens. Only api-purpose personal tokens keep their static scopes in force
// at authorization time.
type TokenPurpose string

const (
	TokenPurposeSession TokenPurpose = "session"
	TokenPurposeAPI     TokenPurpose = "api"
)

// Scope grants a set of actions, optionally narrowed to a project and/or a
// config. A scope with neither is global.
type Scope struct {
	ProjectID string   `json:"project_id,omitempty"`
	ConfigID  string   `json:"config_id,omitempty"`
	Actions   []string `json:"actions"`
}

// Global reports whether the scope applies everywhere.
func (s Scope) Global() bool {
	return s.ProjectID == "" && s.ConfigID == ""
}

// HasAction reports whether the scope grants action.
func (s Scope) HasAction(action string) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// ScopeList stores a scope payload as a JSON column.
type ScopeList []Scope

// Value implements driver.Valuer.
func (l ScopeList) Value() (driver.Value, error) {
	if l == nil {
		l = ScopeList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *ScopeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ScopeList", value)
	}
	return json.Unmarshal(data, l)
}

// Token is a bearer credential. Identity is the salted hash of the opaque
// secret; the plaintext is returned exactly once at creation and never
// stored. Tokens are never deleted, only revoked.
type Token struct {
	ID                 string       `gorm:"column:id;primaryKey"`
	TokenHash          string       `gorm:"column:token_hash;uniqueIndex"`
	Type               TokenType    `gorm:"column:type"`
	SubjectUser        *string      `gorm:"column:subject_user"`
	SubjectServiceName *string      `gorm:"column:subject_service_name"`
	Scopes             ScopeList    `gorm:"column:scopes;type:jsonb"`
	Purpose            TokenPurpose `gorm:"column:purpose"`
	ExpiresAt          *time.Time   `gorm:"column:expires_at"`
	CreatedAt          time.Time    `gorm:"column:created_at"`
	CreatedBy          string       `gorm:"column:created_by"`
	LastUsedAt         *time.Time   `gorm:"column:last_used_at"`
	RevokedAt          *time.Time   `gorm:"column:revoked_at"`
}

func (Token) TableName() string {
	return "tokens"
}

func (t *Token) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the token has an expiry in the past.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// Revoked reports whether the token has been revoked.
func (t *Token) Revoked() bool {
	return t.RevokedAt != nil
}
