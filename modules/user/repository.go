package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUnavailable is returned when the user store could not answer.
	ErrUnavailable = errors.New("user lookup unavailable")
)

// UserRepository provides GORM-backed user storage.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Migrate creates or updates the users table.
func (r *UserRepository) Migrate() error {
	return r.db.AutoMigrate(&User{})
}

// EnsureUser inserts u unless a user with the same ID already exists.
func (r *UserRepository) EnsureUser(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Where("id = ?", u.ID).FirstOrCreate(u).Error; err != nil {
		return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// Exists checks if a user exists.
func (r *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}
