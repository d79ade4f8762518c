package model

import "time"

// OnboardingStateID is the fixed primary key of the single bootstrap row.
// Inserting it doubles as the bootstrap lock.
const OnboardingStateID = "bootstrap_state_v1"

// Onboarding status values.
const (
	OnboardingInProgress = "in_progress"
	OnboardingCompleted  = "completed"
	OnboardingFailed     = "failed"
)

// OnboardingState records whether the system has been bootstrapped, by whom,
// and how a failed attempt ended.
type OnboardingState struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Status        string     `gorm:"column:status;index"`
	StartedAt     time.Time  `gorm:"column:started_at"`
	InitializedAt *time.Time `gorm:"column:initialized_at"`
	InitializedBy *string    `gorm:"column:initialized_by"`
	FailedAt      *time.Time `gorm:"column:failed_at"`
	Error         *string    `gorm:"column:error"`
}

func (OnboardingState) TableName() string {
	return "onboarding_state"
}
