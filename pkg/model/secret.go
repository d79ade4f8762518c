package model

import "time"

// Secret is one key/value document owned by a config. The value is stored
// encoded; pkg/secrets.Codec translates between stored and plaintext form.
// Writes are upserts keyed by (config_id, key).
type Secret struct {
	ConfigID  string    `gorm:"column:config_id;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	ValueEnc  string    `gorm:"column:value_enc"`
	IconSlug  string    `gorm:"column:icon_slug"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	UpdatedBy string    `gorm:"column:updated_by"`
}

func (Secret) TableName() string {
	return "secrets"
}
