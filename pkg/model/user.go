package model

import "time"

// User is an account known to the workspace. Users are created lazily the
// first time a membership or login references them.
type User struct {
	Username   string     `gorm:"column:username;primaryKey"`
	Email      *string    `gorm:"column:email"`
	FullName   *string    `gorm:"column:full_name"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DisabledAt *time.Time `gorm:"column:disabled_at"`
}

func (User) TableName() string {
	return "users"
}

// Disabled reports whether the account has been switched off. A disabled user
// authenticates but resolves to an empty-scope actor.
func (u *User) Disabled() bool {
	return u.DisabledAt != nil
}

// UserCredential is the bcrypt password hash backing userpass login.
type UserCredential struct {
	Username     string    `gorm:"column:username;primaryKey"`
	PasswordHash []byte    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserCredential) TableName() string {
	return "user_credentials"
}
