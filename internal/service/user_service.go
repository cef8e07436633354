package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vaultbox/internal/cache"
	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// Credentials is the register and login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserProfile is the public view of a user with aggregate counts.
type UserProfile struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	TimeSince      string    `json:"time_since"`
	models.UserStats
}

// UserService handles accounts and profiles.
type UserService struct {
	users repository.UserRepository
	cache *cache.Cache
	now   func() time.Time
}

// NewUserService creates a UserService. c may wrap a nil client.
func NewUserService(users repository.UserRepository, c *cache.Cache) *UserService {
	return &UserService{users: users, cache: c, now: time.Now}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in Credentials) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Password: string(hashed)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords look the same.
func (s *UserService) Login(ctx context.Context, in Credentials) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("invalid username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthenticatedError("invalid username or password")
	}
	return user, nil
}

// GetByID implements the auth middleware's user lookup.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Profile returns the public profile for username. The user row is cached;
// stats are always read fresh.
func (s *UserService) Profile(ctx context.Context, username string) (*UserProfile, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserKey(username), &user, cache.UserTTL, func() error {
		found, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		user = *found
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.users.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		ID:             user.ID,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		TimeSince:      models.TimeSince(user.CreatedAt, s.now()),
		UserStats:      stats,
	}, nil
}
