package store

import (
	"errors"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrTokenNotFound is returned when a token doesn't exist.
var ErrTokenNotFound = errors.New("token not found")

// Tokens abstracts bearer token storage. Tokens are append-only: rows are
// mutated only by revocation and last_used_at touches.
type Tokens interface {
	// Insert stores a new token row.
	Insert(token *model.Token) error

	// GetByHash retrieves a token by its salted hash.
	// Returns ErrTokenNotFound if absent.
	GetByHash(hash string) (*model.Token, error)

	// GetByID retrieves a token by id.
	GetByID(id string) (*model.Token, error)

	// List returns tokens newest-first. Unless includeRevoked is set, only
	// live (unrevoked, unexpired as of now) tokens are returned.
	List(includeRevoked bool, now time.Time) ([]model.Token, error)

	// TouchLastUsed records a successful authentication.
	TouchLastUsed(id string, at time.Time) error

	// Revoke marks a token revoked. Idempotent on already-revoked rows.
	Revoke(id string, at time.Time) error

	// RevokeActiveSessionTokens revokes every live personal token of the
	// user that is session-purpose or still carries the legacy global scope
	// payload. Used by Generate's single-active-session rotation.
	RevokeActiveSessionTokens(username string, legacyScopes model.ScopeList, at time.Time) error
}
