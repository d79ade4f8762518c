package store

import (
	"errors"

	"github.com/keyfoldhq/keyfold/pkg/model"
)

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// ErrCredentialNotFound is returned when a user has no userpass credential.
var ErrCredentialNotFound = errors.New("credential not found")

// Users abstracts user account storage.
type Users interface {
	// Get retrieves a user. Returns ErrUserNotFound if absent.
	Get(username string) (*model.User, error)

	// List returns all users ordered by username.
	List() ([]model.User, error)

	// Create inserts a user. Returns ErrUserExists on a duplicate username.
	Create(user *model.User) error

	// Ensure returns the user, creating a bare row if absent.
	Ensure(username string) (*model.User, error)

	// Update persists profile fields of an existing user.
	Update(user *model.User) error

	// Delete removes a user. Returns ErrUserNotFound if absent.
	Delete(username string) error
}

// UserCredentials abstracts userpass credential storage.
type UserCredentials interface {
	// Get retrieves the credential for a username.
	// Returns ErrCredentialNotFound if absent.
	Get(username string) (*model.UserCredential, error)

	// Upsert writes the credential for a username.
	Upsert(credential *model.UserCredential) error

	// Delete removes the credential for a username.
	// Returns ErrCredentialNotFound if absent.
	Delete(username string) error
}
