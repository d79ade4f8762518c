package secrets

import (
	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// CompareOptions tunes CompareKeyAcrossConfigs.
type CompareOptions struct {
	// IncludeParent merges each config's inheritance chain when computing the
	// effective value. Without it only direct rows count.
	IncludeParent bool

	// IncludeMetadata attaches the winning row's metadata to each row.
	IncludeMetadata bool

	// IncludeEmpty keeps rows for configs where the key has no effective
	// value. Summaries still count those rows as missing.
	IncludeEmpty bool
}

// EffectiveValue describes where a config's value for the key comes from.
type EffectiveValue struct {
	Value       string `json:"value"`
	Source      string `json:"source"`
	IsInherited bool   `json:"isInherited"`
}

// DirectValue reports whether the config itself stores the key.
type DirectValue struct {
	Exists bool    `json:"exists"`
	Value  *string `json:"value"`
}

// CompareRow is one config's view of a single key.
type CompareRow struct {
	ConfigID   string          `json:"configId"`
	ConfigSlug string          `json:"configSlug"`
	Effective  *EffectiveValue `json:"effective"`
	Direct     DirectValue     `json:"direct"`
	Meta       *Meta           `json:"meta,omitempty"`
}

// CompareSummary aggregates one key's rows across configs.
type CompareSummary struct {
	UniqueEffectiveValues int  `json:"uniqueEffectiveValues"`
	MissingCount          int  `json:"missingCount"`
	Conflict              bool `json:"conflict"`
}

// CompareKeyAcrossConfigs reports, for one key, the effective and direct value
// in each of the given configs. All secret rows are fetched in one batched
// store call covering the configs and their ancestors.
func (e *Engine) CompareKeyAcrossConfigs(configs []model.Config, key string, opts CompareOptions) ([]CompareRow, error) {
	if !validate.EnvKey(key) {
		return nil, ErrInvalidKey
	}

	known := make(map[string]*model.Config, len(configs))
	for i := range configs {
		known[configs[i].ID] = &configs[i]
	}

	// Leaf-first chains per candidate config so the nearest row wins.
	chains := make([][]model.Config, len(configs))
	involved := map[string]struct{}{}
	for i, config := range configs {
		if opts.IncludeParent {
			chain, err := e.resolveChain(config.ID, known)
			if err != nil {
				return nil, err
			}
			for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
				chain[l], chain[r] = chain[r], chain[l]
			}
			chains[i] = chain
		} else {
			chains[i] = []model.Config{config}
		}
		for _, member := range chains[i] {
			involved[member.ID] = struct{}{}
		}
	}

	configIDs := make([]string, 0, len(involved))
	for id := range involved {
		configIDs = append(configIDs, id)
	}
	rows, err := e.secrets.FindKeyAcrossConfigs(configIDs, key)
	if err != nil {
		return nil, err
	}
	byConfig := make(map[string]*model.Secret, len(rows))
	for i := range rows {
		byConfig[rows[i].ConfigID] = &rows[i]
	}

	out := make([]CompareRow, 0, len(configs))
	for i, config := range configs {
		row := CompareRow{ConfigID: config.ID, ConfigSlug: config.Slug}

		if direct, ok := byConfig[config.ID]; ok {
			value, err := e.codec.Decode(direct.ValueEnc)
			if err != nil {
				return nil, err
			}
			row.Direct = DirectValue{Exists: true, Value: &value}
		}

		for _, member := range chains[i] {
			winner, ok := byConfig[member.ID]
			if !ok {
				continue
			}
			value, err := e.codec.Decode(winner.ValueEnc)
			if err != nil {
				return nil, err
			}
			row.Effective = &EffectiveValue{
				Value:       value,
				Source:      member.Slug,
				IsInherited: member.ID != config.ID,
			}
			if opts.IncludeMetadata {
				row.Meta = &Meta{
					UpdatedAt: winner.UpdatedAt,
					UpdatedBy: winner.UpdatedBy,
					IconSlug:  winner.IconSlug,
				}
			}
			break
		}

		if row.Effective == nil && !opts.IncludeEmpty {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// SummarizeCompare aggregates compare rows. Conflict means more than one
// distinct effective value exists for the key.
func SummarizeCompare(rows []CompareRow) CompareSummary {
	unique := map[string]struct{}{}
	summary := CompareSummary{}
	for _, row := range rows {
		if row.Effective == nil {
			summary.MissingCount++
			continue
		}
		unique[row.Effective.Value] = struct{}{}
	}
	summary.UniqueEffectiveValues = len(unique)
	summary.Conflict = len(unique) > 1
	return summary
}
