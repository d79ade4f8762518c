package secrets

import (
	"errors"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

var (
	// ErrInvalidKey rejects keys that don't match the env-key shape.
	ErrInvalidKey = errors.New("Invalid secret key")

	// ErrInheritanceCycle is returned when a config's parent chain loops.
	ErrInheritanceCycle = errors.New("Config inheritance cycle detected")
)

// Meta is the bookkeeping attached to a stored secret.
type Meta struct {
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
	IconSlug  string    `json:"iconSlug"`
}

// Engine implements secret reads and writes on top of the store layer.
type Engine struct {
	secrets store.Secrets
	configs store.Configs
	codec   Codec
}

func NewEngine(secrets store.Secrets, configs store.Configs, codec Codec) *Engine {
	if codec == nil {
		codec = PassthroughCodec{}
	}
	return &Engine{secrets: secrets, configs: configs, codec: codec}
}

// Put writes one secret into a config. The key must be a valid env key.
// iconSlug is an optional override; when empty or malformed the icon is
// guessed from the key.
func (e *Engine) Put(configID, key, value, actor, iconSlug string) (*model.Secret, error) {
	if !validate.EnvKey(key) {
		return nil, ErrInvalidKey
	}
	encoded, err := e.codec.Encode(value)
	if err != nil {
		return nil, err
	}
	secret := &model.Secret{
		ConfigID:  configID,
		Key:       key,
		ValueEnc:  encoded,
		IconSlug:  ResolveIconSlug(key, iconSlug),
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor,
	}
	if err := e.secrets.Upsert(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// Get returns the plaintext value of one directly stored secret.
func (e *Engine) Get(configID, key string) (string, *Meta, error) {
	if !validate.EnvKey(key) {
		return "", nil, ErrInvalidKey
	}
	secret, err := e.secrets.Get(configID, key)
	if err != nil {
		return "", nil, err
	}
	value, err := e.codec.Decode(secret.ValueEnc)
	if err != nil {
		return "", nil, err
	}
	meta := &Meta{UpdatedAt: secret.UpdatedAt, UpdatedBy: secret.UpdatedBy, IconSlug: secret.IconSlug}
	return value, meta, nil
}

// Delete removes one directly stored secret.
func (e *Engine) Delete(configID, key string) error {
	if !validate.EnvKey(key) {
		return ErrInvalidKey
	}
	return e.secrets.Delete(configID, key)
}

// ResolveChain returns the inheritance chain for a config ordered root first.
// A parent pointing at a missing config ends the chain; a repeated config id
// is an inheritance cycle.
func (e *Engine) ResolveChain(configID string) ([]model.Config, error) {
	return e.resolveChain(configID, nil)
}

// resolveChain walks parent pointers, preferring configs from known (when the
// caller already loaded a batch) and falling back to the store.
func (e *Engine) resolveChain(configID string, known map[string]*model.Config) ([]model.Config, error) {
	var chain []model.Config
	visited := map[string]struct{}{}
	id := configID
	for id != "" {
		if _, seen := visited[id]; seen {
			return nil, ErrInheritanceCycle
		}
		visited[id] = struct{}{}

		config, ok := known[id]
		if !ok {
			loaded, err := e.configs.GetByID(id)
			if err != nil {
				if errors.Is(err, store.ErrConfigNotFound) {
					break
				}
				return nil, err
			}
			config = loaded
		}
		chain = append(chain, *config)
		if config.ParentConfigID == nil {
			break
		}
		id = *config.ParentConfigID
	}

	// Reverse to root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Export returns the effective key/value map of a config. With includeParent
// the parent chain is merged root to leaf so the most specific config wins per
// key. With includeMetadata the per-key metadata of the winning row is
// returned alongside.
func (e *Engine) Export(configID string, includeParent, includeMetadata bool) (map[string]string, map[string]Meta, error) {
	var chain []model.Config
	if includeParent {
		resolved, err := e.ResolveChain(configID)
		if err != nil {
			return nil, nil, err
		}
		chain = resolved
	} else {
		config, err := e.configs.GetByID(configID)
		if err != nil {
			return nil, nil, err
		}
		chain = []model.Config{*config}
	}

	values := map[string]string{}
	var metas map[string]Meta
	if includeMetadata {
		metas = map[string]Meta{}
	}
	for _, config := range chain {
		rows, err := e.secrets.ListByConfig(config.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			value, err := e.codec.Decode(row.ValueEnc)
			if err != nil {
				return nil, nil, err
			}
			values[row.Key] = value
			if includeMetadata {
				metas[row.Key] = Meta{UpdatedAt: row.UpdatedAt, UpdatedBy: row.UpdatedBy, IconSlug: row.IconSlug}
			}
		}
	}
	return values, metas, nil
}
