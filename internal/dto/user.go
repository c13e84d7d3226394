package dto

import "github.com/tractshare/tract-api/internal/models"

// UpdateUserRequest is the admin user patch; nil fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string          `json:"name"`
	Email    *string          `json:"email" validate:"omitempty,email"`
	Role     *models.UserRole `json:"role" validate:"omitempty,oneof=admin approver uploader user"`
	Password *string          `json:"password" validate:"omitempty,min=8"`
}

// UpdateProfileRequest allows a caller to change their own display name only.
type UpdateProfileRequest struct {
	Name *string `json:"name"`
}
