// Package authz holds the role/action authorization rules as a pure lookup,
// so access decisions are testable without a request context.
package authz

import "github.com/tractshare/tract-api/internal/models"

// Action is a privileged operation gated by role.
type Action string

const (
	ActionUpload        Action = "upload"
	ActionReview        Action = "review"
	ActionViewPending   Action = "view_pending"
	ActionViewStats     Action = "view_stats"
	ActionManageTracts  Action = "manage_tracts"
	ActionManageUsers   Action = "manage_users"
	ActionViewAllTracts Action = "view_all_tracts"
)

var rules = map[Action][]models.UserRole{
	ActionUpload:        {models.RoleAdmin, models.RoleUploader},
	ActionReview:        {models.RoleAdmin, models.RoleApprover},
	ActionViewPending:   {models.RoleAdmin, models.RoleApprover},
	ActionViewStats:     {models.RoleAdmin, models.RoleApprover},
	ActionManageTracts:  {models.RoleAdmin},
	ActionManageUsers:   {models.RoleAdmin},
	ActionViewAllTracts: {models.RoleAdmin},
}

// Allowed reports whether the role may perform the action. Unknown roles and
// unknown actions both deny: the guard fails closed.
func Allowed(role models.UserRole, action Action) bool {
	for _, allowed := range rules[action] {
		if role == allowed {
			return true
		}
	}
	return false
}
