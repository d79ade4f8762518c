package authn

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// ErrUserExists is returned when registering an already-registered username.
var ErrUserExists = errors.New("user already exists")

// ErrBadCredentials is returned when a username/password pair doesn't verify.
var ErrBadCredentials = errors.New("bad credentials")

// Userpass verifies and registers password credentials.
type Userpass struct {
	credentials store.UserCredentials
	users       store.Users
	cost        int
}

func NewUserpass(credentials store.UserCredentials, users store.Users) *Userpass {
	return &Userpass{credentials: credentials, users: users, cost: bcrypt.DefaultCost}
}

// Register creates a credential for a new username. The user row is created
// alongside if it doesn't exist yet.
func (u *Userpass) Register(username, password string) error {
	if _, err := u.credentials.Get(username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, store.ErrCredentialNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return err
	}
	if _, err := u.users.Ensure(username); err != nil {
		return err
	}
	return u.credentials.Upsert(&model.UserCredential{
		Username:     username,
		PasswordHash: hash,
	})
}

// ChangePassword replaces an existing credential after verifying the old one.
func (u *Userpass) ChangePassword(username, oldPassword, newPassword string) error {
	if !u.IsAuthorized(username, oldPassword) {
		return ErrBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cost)
	if err != nil {
		return err
	}
	return u.credentials.Upsert(&model.UserCredential{
		Username:     username,
		PasswordHash: hash,
	})
}

// Remove deletes a username's credential. The user row is left to the caller.
func (u *Userpass) Remove(username string) error {
	return u.credentials.Delete(username)
}

// IsAuthorized reports whether the username/password pair verifies against
// the stored hash.
func (u *Userpass) IsAuthorized(username, password string) bool {
	credential, err := u.credentials.Get(username)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(credential.PasswordHash, []byte(password)) == nil
}
