package gorm

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Tokens implements store.Tokens
var _ store.Tokens = (*Tokens)(nil)

// Tokens implements store.Tokens using GORM
type Tokens struct {
	db *gorm.DB
}

// NewTokens creates a new Tokens store
func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{db: db}
}

func (s *Tokens) Insert(token *model.Token) error {
	return s.db.Create(token).Error
}

func (s *Tokens) GetByHash(hash string) (*model.Token, error) {
	var token model.Token
	tx := s.db.Where("token_hash = ?", hash).First(&token)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrTokenNotFound
		}
		return nil, tx.Error
	}
	return &token, nil
}

func (s *Tokens) GetByID(id string) (*model.Token, error) {
	var token model.Token
	tx := s.db.Where("id = ?", id).First(&token)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrTokenNotFound
		}
		return nil, tx.Error
	}
	return &token, nil
}

func (s *Tokens) List(includeRevoked bool, now time.Time) ([]model.Token, error) {
	query := s.db.Order("created_at desc")
	if !includeRevoked {
		query = query.Where("revoked_at IS NULL").
			Where("expires_at IS NULL OR expires_at > ?", now)
	}
	var tokens []model.Token
	tx := query.Find(&tokens)
	return tokens, tx.Error
}

func (s *Tokens) TouchLastUsed(id string, at time.Time) error {
	return s.db.Model(&model.Token{}).Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (s *Tokens) Revoke(id string, at time.Time) error {
	return s.db.Model(&model.Token{}).Where("id = ?", id).
		Update("revoked_at", at).Error
}

// RevokeActiveSessionTokens implements the single-active-session rotation.
// Legacy tokens predating the purpose column are matched by their exact
// global scope payload.
func (s *Tokens) RevokeActiveSessionTokens(username string, legacyScopes model.ScopeList, at time.Time) error {
	legacyJSON, err := legacyScopes.Value()
	if err != nil {
		return err
	}
	return s.db.Model(&model.Token{}).
		Where("type = ? AND subject_user = ? AND revoked_at IS NULL", model.TokenTypePersonal, username).
		Where("purpose = ? OR scopes = ?", model.TokenPurposeSession, legacyJSON).
		Update("revoked_at", at).Error
}
