package secrets

import (
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

type fakeConfigs struct {
	configs map[string]model.Config
}

var _ store.Configs = (*fakeConfigs)(nil)

func newFakeConfigs(configs ...model.Config) *fakeConfigs {
	f := &fakeConfigs{configs: map[string]model.Config{}}
	for _, c := range configs {
		f.configs[c.ID] = c
	}
	return f
}

func (f *fakeConfigs) Create(config *model.Config) error {
	f.configs[config.ID] = *config
	return nil
}

func (f *fakeConfigs) GetByID(id string) (*model.Config, error) {
	c, ok := f.configs[id]
	if !ok {
		return nil, store.ErrConfigNotFound
	}
	return &c, nil
}

func (f *fakeConfigs) GetBySlug(projectID, slug string) (*model.Config, error) {
	for _, c := range f.configs {
		if c.ProjectID == projectID && c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, store.ErrConfigNotFound
}

func (f *fakeConfigs) List(projectID string) ([]model.Config, error) {
	var out []model.Config
	for _, c := range f.configs {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConfigs) Delete(id string) error {
	if _, ok := f.configs[id]; !ok {
		return store.ErrConfigNotFound
	}
	delete(f.configs, id)
	return nil
}

type secretKey struct {
	configID string
	key      string
}

type fakeSecrets struct {
	rows map[secretKey]model.Secret
}

var _ store.Secrets = (*fakeSecrets)(nil)

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{rows: map[secretKey]model.Secret{}}
}

func (f *fakeSecrets) Upsert(secret *model.Secret) error {
	f.rows[secretKey{secret.ConfigID, secret.Key}] = *secret
	return nil
}

func (f *fakeSecrets) Get(configID, key string) (*model.Secret, error) {
	row, ok := f.rows[secretKey{configID, key}]
	if !ok {
		return nil, store.ErrSecretNotFound
	}
	return &row, nil
}

func (f *fakeSecrets) Delete(configID, key string) error {
	k := secretKey{configID, key}
	if _, ok := f.rows[k]; !ok {
		return store.ErrSecretNotFound
	}
	delete(f.rows, k)
	return nil
}

func (f *fakeSecrets) ListByConfig(configID string) ([]model.Secret, error) {
	var out []model.Secret
	for k, row := range f.rows {
		if k.configID == configID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeSecrets) FindKeyAcrossConfigs(configIDs []string, key string) ([]model.Secret, error) {
	var out []model.Secret
	for _, id := range configIDs {
		if row, ok := f.rows[secretKey{id, key}]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}
