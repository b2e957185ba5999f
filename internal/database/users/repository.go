// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("alice")
package users

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/audioshelf/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a user with an already hashed password.
func (r *Repository) CreateUser(username, passwordHash string, isAdmin bool) (*entities.User, error) {
	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetAdmin grants or revokes the administrator flag.
func (r *Repository) SetAdmin(id uint, isAdmin bool) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Update("is_admin", isAdmin).Error
}

// LockUser takes a row lock on the user for the rest of the transaction.
// The SQLite dialect drops the FOR UPDATE clause; there the write lock
// taken by BEGIN IMMEDIATE already serialises the caller.
func (r *Repository) LockUser(id uint) error {
	var user entities.User
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, id).Error
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
