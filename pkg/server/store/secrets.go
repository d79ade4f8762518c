package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrSecretNotFound is returned when a secret doesn't exist.
var ErrSecretNotFound = errors.New("secret not found")

// Secrets abstracts secret document storage. Values pass through unchanged;
// encoding belongs to the engine's codec.
type Secrets interface {
	// Upsert writes a secret, overwriting any existing (config_id, key) row.
	Upsert(secret *model.Secret) error

	// Get retrieves one secret. Returns ErrSecretNotFound if absent.
	Get(configID, key string) (*model.Secret, error)

	// Delete removes one secret. Returns ErrSecretNotFound if absent.
	Delete(configID, key string) error

	// ListByConfig returns all secrets directly owned by a config.
	ListByConfig(configID string) ([]model.Secret, error)

	// FindKeyAcrossConfigs returns the rows for one key across a set of
	// configs in a single batched lookup.
	FindKeyAcrossConfigs(configIDs []string, key string) ([]model.Secret, error)
}
