package dto

import (
	"time"

	"github.com/tractshare/tract-api/internal/models"
)

// RegisterRequest creates a new account with the default "user" role.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the caller identity echoed after authentication.
type UserInfo struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  *string         `json:"name"`
	Role  models.UserRole `json:"role"`
}
