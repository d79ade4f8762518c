package authn

import (
	"errors"
	"net/http"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// BootstrapTokenTTL is the lifetime of the token issued by Bootstrap, about
// six months.
const BootstrapTokenTTL = 15811200 * time.Second

// StatusError is a flow failure with an HTTP status attached.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string { return e.Message }

// Bootstrap lock conflicts.
var (
	ErrAlreadyInitialized  = &StatusError{Message: "System already initialized", StatusCode: http.StatusConflict}
	ErrBootstrapInProgress = &StatusError{Message: "Bootstrap already in progress", StatusCode: http.StatusConflict}
	ErrBootstrapLock       = &StatusError{Message: "Bootstrap lock error. Please retry.", StatusCode: http.StatusConflict}
)

// OnboardingState is the externally visible bootstrap status.
type OnboardingState struct {
	IsInitialized bool       `json:"isInitialized"`
	State         string     `json:"state"`
	InitializedAt *time.Time `json:"initializedAt"`
	InitializedBy *string    `json:"initializedBy"`
}

// Onboarding runs the one-time bootstrap flow: register the first owner,
// grant them the owner membership, and issue a long-lived token. The single
// state row doubles as the lock that serializes competing attempts.
type Onboarding struct {
	states      store.OnboardingStates
	userpass    *Userpass
	tokens      *TokenEngine
	workspaces  store.Workspaces
	users       store.Users
	memberships store.Memberships
	now         func() time.Time
}

func NewOnboarding(
	states store.OnboardingStates,
	userpass *Userpass,
	tokens *TokenEngine,
	workspaces store.Workspaces,
	users store.Users,
	memberships store.Memberships,
) *Onboarding {
	return &Onboarding{
		states:      states,
		userpass:    userpass,
		tokens:      tokens,
		workspaces:  workspaces,
		users:       users,
		memberships: memberships,
		now:         time.Now,
	}
}

// State reports the current bootstrap status.
func (o *Onboarding) State() (OnboardingState, error) {
	row, err := o.states.Get()
	if err != nil {
		if errors.Is(err, store.ErrOnboardingNotFound) {
			return OnboardingState{State: "not_initialized"}, nil
		}
		return OnboardingState{}, err
	}
	return OnboardingState{
		IsInitialized: row.Status == model.OnboardingCompleted,
		State:         row.Status,
		InitializedAt: row.InitializedAt,
		InitializedBy: row.InitializedBy,
	}, nil
}

// IsInitialized reports whether bootstrap has completed.
func (o *Onboarding) IsInitialized() (bool, error) {
	state, err := o.State()
	return state.IsInitialized, err
}

// acquireLock claims the bootstrap row. A failed prior attempt is reclaimed;
// a completed or running one conflicts.
func (o *Onboarding) acquireLock() error {
	now := o.now().UTC()
	err := o.states.Insert(&model.OnboardingState{
		Status:    model.OnboardingInProgress,
		StartedAt: now,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrOnboardingExists) {
		return err
	}

	row, err := o.states.Get()
	if err != nil {
		if errors.Is(err, store.ErrOnboardingNotFound) {
			return ErrBootstrapLock
		}
		return err
	}
	switch row.Status {
	case model.OnboardingCompleted:
		return ErrAlreadyInitialized
	case model.OnboardingInProgress:
		return ErrBootstrapInProgress
	}
	return o.states.Update(&model.OnboardingState{
		Status:    model.OnboardingInProgress,
		StartedAt: now,
	})
}

func (o *Onboarding) markFailed(cause error) {
	now := o.now().UTC()
	message := cause.Error()
	// Best effort; the original failure is what the caller sees.
	_ = o.states.Update(&model.OnboardingState{
		Status:    model.OnboardingFailed,
		StartedAt: now,
		FailedAt:  &now,
		Error:     &message,
	})
}

// BootstrapResult is the outcome of a successful bootstrap.
type BootstrapResult struct {
	State OnboardingState
	Token *CreatedToken
}

// Bootstrap initializes the system with its first owner account. When
// issueToken is set a long-lived personal token is returned; it is the only
// time its plaintext is visible.
func (o *Onboarding) Bootstrap(username, password string, issueToken bool) (*BootstrapResult, error) {
	if err := o.acquireLock(); err != nil {
		return nil, err
	}

	if err := o.userpass.Register(username, password); err != nil {
		// A previous failed attempt may have registered the user already;
		// retry as long as the credentials still verify.
		if !(errors.Is(err, ErrUserExists) && o.userpass.IsAuthorized(username, password)) {
			o.markFailed(err)
			return nil, err
		}
	}

	workspace, err := o.workspaces.EnsureDefault()
	if err != nil {
		o.markFailed(err)
		return nil, err
	}
	if _, err := o.users.Ensure(username); err != nil {
		o.markFailed(err)
		return nil, err
	}
	if _, err := o.memberships.UpsertWorkspaceMembership(workspace.ID, username, model.WorkspaceRoleOwner); err != nil {
		o.markFailed(err)
		return nil, err
	}

	var token *CreatedToken
	if issueToken {
		expiresAt := o.now().UTC().Add(BootstrapTokenTTL)
		token, err = o.tokens.CreateToken(CreateTokenParams{
			Type:        model.TokenTypePersonal,
			CreatedBy:   username,
			SubjectUser: username,
			Scopes:      GlobalScopes(),
			ExpiresAt:   &expiresAt,
		})
		if err != nil {
			o.markFailed(err)
			return nil, &StatusError{
				Message:    "Failed to generate bootstrap token",
				StatusCode: http.StatusInternalServerError,
			}
		}
	}

	now := o.now().UTC()
	if err := o.states.Update(&model.OnboardingState{
		Status:        model.OnboardingCompleted,
		StartedAt:     now,
		InitializedAt: &now,
		InitializedBy: &username,
	}); err != nil {
		return nil, err
	}

	state, err := o.State()
	if err != nil {
		return nil, err
	}
	return &BootstrapResult{State: state, Token: token}, nil
}
