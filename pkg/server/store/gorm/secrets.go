package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Secrets implements store.Secrets
var _ store.Secrets = (*Secrets)(nil)

// Secrets implements store.Secrets using GORM
type Secrets struct {
	db *gorm.DB
}

// NewSecrets creates a new Secrets store
func NewSecrets(db *gorm.DB) *Secrets {
	return &Secrets{db: db}
}

// Upsert relies on the (config_id, key) primary key for per-document
// atomicity; concurrent writers race but each write lands whole.
func (s *Secrets) Upsert(secret *model.Secret) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "config_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value_enc", "icon_slug", "updated_at", "updated_by",
		}),
	}).Create(secret).Error
}

func (s *Secrets) Get(configID, key string) (*model.Secret, error) {
	var secret model.Secret
	tx := s.db.Where("config_id = ? AND key = ?", configID, key).First(&secret)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrSecretNotFound
		}
		return nil, tx.Error
	}
	return &secret, nil
}

func (s *Secrets) Delete(configID, key string) error {
	tx := s.db.Where("config_id = ? AND key = ?", configID, key).Delete(&model.Secret{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrSecretNotFound
	}
	return nil
}

func (s *Secrets) ListByConfig(configID string) ([]model.Secret, error) {
	var secrets []model.Secret
	tx := s.db.Where("config_id = ?", configID).Order("key").Find(&secrets)
	return secrets, tx.Error
}

func (s *Secrets) FindKeyAcrossConfigs(configIDs []string, key string) ([]model.Secret, error) {
	if len(configIDs) == 0 {
		return nil, nil
	}
	var secrets []model.Secret
	tx := s.db.Where("config_id IN ? AND key = ?", configIDs, key).Find(&secrets)
	return secrets, tx.Error
}
