package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// Ensure Users implements store.Users
var _ store.Users = (*Users)(nil)

// Users implements store.Users using GORM
type Users struct {
	db *gorm.DB
}

// NewUsers creates a new Users store
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Get(username string) (*model.User, error) {
	var user model.User
	tx := s.db.Where("username = ?", username).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}
	return &user, nil
}

func (s *Users) List() ([]model.User, error) {
	var users []model.User
	tx := s.db.Order("username").Find(&users)
	return users, tx.Error
}

func (s *Users) Create(user *model.User) error {
	err := s.db.Create(user).Error
	if isUniqueViolation(err) {
		return store.ErrUserExists
	}
	return err
}

func (s *Users) Ensure(username string) (*model.User, error) {
	user, err := s.Get(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}
	if err := s.Create(&model.User{Username: username}); err != nil && !errors.Is(err, store.ErrUserExists) {
		return nil, err
	}
	return s.Get(username)
}

func (s *Users) Update(user *model.User) error {
	return s.db.Model(&model.User{}).Where("username = ?", user.Username).Updates(map[string]interface{}{
		"email":       user.Email,
		"full_name":   user.FullName,
		"disabled_at": user.DisabledAt,
	}).Error
}

func (s *Users) Delete(username string) error {
	tx := s.db.Where("username = ?", username).Delete(&model.User{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Ensure UserCredentials implements store.UserCredentials
var _ store.UserCredentials = (*UserCredentials)(nil)

// UserCredentials implements store.UserCredentials using GORM
type UserCredentials struct {
	db *gorm.DB
}

// NewUserCredentials creates a new UserCredentials store
func NewUserCredentials(db *gorm.DB) *UserCredentials {
	return &UserCredentials{db: db}
}

func (s *UserCredentials) Get(username string) (*model.UserCredential, error) {
	var credential model.UserCredential
	tx := s.db.Where("username = ?", username).First(&credential)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrCredentialNotFound
		}
		return nil, tx.Error
	}
	return &credential, nil
}

func (s *UserCredentials) Upsert(credential *model.UserCredential) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
	}).Create(credential).Error
}

func (s *UserCredentials) Delete(username string) error {
	tx := s.db.Where("username = ?", username).Delete(&model.UserCredential{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrCredentialNotFound
	}
	return nil
}
