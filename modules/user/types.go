package user

import (
	"context"
	"time"
)

// User is the GORM model for the users table.
type User struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Timezone  string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}

// GetUserRequest is the request for getting a user.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse is the response for getting a user.
type GetUserResponse struct {
	User  *User  `json:"user,omitempty"`
	Found bool   `json:"found"`
	Error string `json:"error,omitempty"`
}

// ValidateUserRequest is the request for validating a user.
type ValidateUserRequest struct {
	UserID string `json:"user_id"`
}

// ValidateUserResponse is the response for validating a user.
type ValidateUserResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// codeUnavailable marks a reply whose lookup failed in the store.
const codeUnavailable = "unavailable"

// UserPort defines the user operations other modules depend on.
type UserPort interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	ValidateUser(ctx context.Context, userID string) (bool, error)
}
