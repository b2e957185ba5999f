package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/audioshelf/internal/config"
	"github.com/mrlokans/audioshelf/internal/database/users"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/validation"
)

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=150,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service handles account creation and credential checks.
type Service struct {
	db        *gorm.DB
	validator *validation.Validator
	config    config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, v *validation.Validator, cfg config.Auth) *Service {
	return &Service{db: db, validator: v, config: cfg}
}

// Signup registers a regular (non-admin) user.
func (s *Service) Signup(ctx context.Context, username, password string) (*entities.User, error) {
	return s.createUser(ctx, username, password, false)
}

func (s *Service) createUser(ctx context.Context, username, password string, isAdmin bool) (*entities.User, error) {
	in := credentials{Username: strings.TrimSpace(username), Password: password}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	repo := users.NewRepository(s.db.WithContext(ctx))
	if _, err := repo.GetUserByUsername(in.Username); err == nil {
		return nil, domainerr.Conflictf("username %q is already taken", in.Username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerr.Internal(err, "failed to check existing user")
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong) {
			return nil, domainerr.InvalidInputf("%s", err.Error())
		}
		return nil, domainerr.Internal(err, "failed to hash password")
	}

	user, err := repo.CreateUser(in.Username, hash, isAdmin)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domainerr.Conflictf("username %q is already taken", in.Username)
		}
		return nil, domainerr.Internal(err, "failed to create user")
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.Unauthorized("invalid username or password")
		}
		return nil, domainerr.Internal(err, "failed to find user")
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, domainerr.Unauthorized("invalid username or password")
		}
		return nil, domainerr.Internal(err, "failed to check password")
	}
	return user, nil
}

// EnsureAdmin makes sure an administrator named username exists. A missing
// account is created with password; an existing one is promoted and keeps
// its password. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*entities.User, bool, error) {
	repo := users.NewRepository(s.db.WithContext(ctx))
	existing, err := repo.GetUserByUsername(strings.TrimSpace(username))
	if err == nil {
		if !existing.IsAdmin {
			if err := repo.SetAdmin(existing.ID, true); err != nil {
				return nil, false, domainerr.Internal(err, "failed to promote user")
			}
			existing.IsAdmin = true
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, domainerr.Internal(err, "failed to find user")
	}

	user, err := s.createUser(ctx, username, password, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerr.NotFoundf("user %d not found", id)
		}
		return nil, domainerr.Internal(err, "failed to find user")
	}
	return user, nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	count, err := users.NewRepository(s.db.WithContext(ctx)).CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
