package models

import "time"

// UserRole represents the available roles for the RBAC system.
// A user carries exactly one role at a time.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleApprover UserRole = "approver"
	RoleUploader UserRole = "uploader"
	RoleUser     UserRole = "user"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         *string   `db:"name" json:"name"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserDetail is a user annotated with activity counts for admin and
// profile views.
type UserDetail struct {
	User
	TractsCount    int `db:"tracts_count" json:"tracts_count"`
	DownloadsCount int `db:"downloads_count" json:"downloads_count"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
