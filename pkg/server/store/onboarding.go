package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrOnboardingNotFound is returned when the bootstrap row doesn't exist yet.
var ErrOnboardingNotFound = errors.New("onboarding state not found")

// ErrOnboardingExists is returned when the bootstrap lock row already exists.
var ErrOnboardingExists = errors.New("onboarding state already exists")

// OnboardingStates stores the single bootstrap state row. Insert doubles as
// the bootstrap lock: the primary key collision serializes competing
// bootstrap attempts.
type OnboardingStates interface {
	// Get retrieves the bootstrap row.
	// Returns ErrOnboardingNotFound if absent.
	Get() (*model.OnboardingState, error)

	// Insert creates the bootstrap row.
	// Returns ErrOnboardingExists if it already exists.
	Insert(state *model.OnboardingState) error

	// Update replaces the bootstrap row.
	Update(state *model.OnboardingState) error
}
