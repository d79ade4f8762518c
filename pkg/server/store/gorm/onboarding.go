package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure OnboardingStates implements store.OnboardingStates
var _ store.OnboardingStates = (*OnboardingStates)(nil)

// OnboardingStates implements store.OnboardingStates using GORM
type OnboardingStates struct {
	db *gorm.DB
}

// NewOnboardingStates creates a new OnboardingStates store
func NewOnboardingStates(db *gorm.DB) *OnboardingStates {
	return &OnboardingStates{db: db}
}

func (s *OnboardingStates) Get() (*model.OnboardingState, error) {
	var state model.OnboardingState
	tx := s.db.Where("id = ?", model.OnboardingStateID).First(&state)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrOnboardingNotFound
		}
		return nil, tx.Error
	}
	return &state, nil
}

func (s *OnboardingStates) Insert(state *model.OnboardingState) error {
	state.ID = model.OnboardingStateID
	err := s.db.Create(state).Error
	if isUniqueViolation(err) {
		return store.ErrOnboardingExists
	}
	return err
}

func (s *OnboardingStates) Update(state *model.OnboardingState) error {
	state.ID = model.OnboardingStateID
	return s.db.Model(&model.OnboardingState{}).
		Where("id = ?", model.OnboardingStateID).
		Updates(map[string]interface{}{
			"status":         state.Status,
			"started_at":     state.StartedAt,
			"initialized_at": state.InitializedAt,
			"initialized_by": state.InitializedBy,
			"failed_at":      state.FailedAt,
			"error":          state.Error,
		}).Error
}
