package authn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

type onboardingFixture struct {
	onboarding  *Onboarding
	states      *fakeOnboardingStates
	memberships *fakeMemberships
	tokens      *TokenEngine
	userpass    *Userpass
}

func newOnboardingFixture() *onboardingFixture {
	states := &fakeOnboardingStates{}
	memberships := newFakeMemberships()
	userpass := NewUserpass(newFakeCredentials(), newFakeUsers())
	tokens := NewTokenEngine(newFakeTokens(), "salt", nil)
	return &onboardingFixture{
		onboarding:  NewOnboarding(states, userpass, tokens, newFakeWorkspaces(), newFakeUsers(), memberships),
		states:      states,
		memberships: memberships,
		tokens:      tokens,
		userpass:    userpass,
	}
}

func TestStateBeforeBootstrap(t *testing.T) {
	f := newOnboardingFixture()

	state, err := f.onboarding.State()
	require.NoError(t, err)
	assert.False(t, state.IsInitialized)
	assert.Equal(t, "not_initialized", state.State)
	assert.Nil(t, state.InitializedBy)
}

func TestBootstrapHappyPath(t *testing.T) {
	f := newOnboardingFixture()

	result, err := f.onboarding.Bootstrap("alice", "s3cret", true)
	require.NoError(t, err)
	assert.True(t, result.State.IsInitialized)
	require.NotNil(t, result.State.InitializedBy)
	assert.Equal(t, "alice", *result.State.InitializedBy)

	// The first owner can log in and holds the owner membership.
	assert.True(t, f.userpass.IsAuthorized("alice", "s3cret"))
	assert.Equal(t, model.WorkspaceRoleOwner, f.memberships.roles["alice"])

	// The bootstrap token authenticates and is long-lived.
	require.NotNil(t, result.Token)
	actor, err := f.tokens.Authenticate(result.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.Owner())
	require.NotNil(t, result.Token.ExpiresAt)
}

func TestBootstrapWithoutToken(t *testing.T) {
	f := newOnboardingFixture()

	result, err := f.onboarding.Bootstrap("alice", "s3cret", false)
	require.NoError(t, err)
	assert.Nil(t, result.Token)
	assert.True(t, result.State.IsInitialized)
}

func TestBootstrapTwiceConflicts(t *testing.T) {
	f := newOnboardingFixture()

	_, err := f.onboarding.Bootstrap("alice", "s3cret", false)
	require.NoError(t, err)

	_, err = f.onboarding.Bootstrap("bob", "other", false)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestBootstrapWhileInProgressConflicts(t *testing.T) {
	f := newOnboardingFixture()
	f.states.row = &model.OnboardingState{
		ID:     model.OnboardingStateID,
		Status: model.OnboardingInProgress,
	}

	_, err := f.onboarding.Bootstrap("alice", "s3cret", false)
	assert.ErrorIs(t, err, ErrBootstrapInProgress)
}

func TestBootstrapRetriesAfterFailure(t *testing.T) {
	f := newOnboardingFixture()
	// A previous attempt failed after registering the user.
	require.NoError(t, f.userpass.Register("alice", "s3cret"))
	f.states.row = &model.OnboardingState{
		ID:     model.OnboardingStateID,
		Status: model.OnboardingFailed,
	}

	result, err := f.onboarding.Bootstrap("alice", "s3cret", false)
	require.NoError(t, err)
	assert.True(t, result.State.IsInitialized)
}

func TestBootstrapRetryRejectsWrongPassword(t *testing.T) {
	f := newOnboardingFixture()
	require.NoError(t, f.userpass.Register("alice", "s3cret"))
	f.states.row = &model.OnboardingState{
		ID:     model.OnboardingStateID,
		Status: model.OnboardingFailed,
	}

	_, err := f.onboarding.Bootstrap("alice", "wrong", false)
	assert.ErrorIs(t, err, ErrUserExists)

	state, stateErr := f.onboarding.State()
	require.NoError(t, stateErr)
	assert.Equal(t, model.OnboardingFailed, state.State)
}
