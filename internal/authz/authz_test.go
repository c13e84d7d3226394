package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tractshare/tract-api/internal/models"
)

func TestAllowedMatrix(t *testing.T) {
	cases := []struct {
		role   models.UserRole
		action Action
		want   bool
	}{
		{models.RoleAdmin, ActionUpload, true},
		{models.RoleUploader, ActionUpload, true},
		{models.RoleApprover, ActionUpload, false},
		{models.RoleUser, ActionUpload, false},

		{models.RoleAdmin, ActionReview, true},
		{models.RoleApprover, ActionReview, true},
		{models.RoleUploader, ActionReview, false},
		{models.RoleUser, ActionReview, false},

		{models.RoleApprover, ActionViewPending, true},
		{models.RoleApprover, ActionViewStats, true},
		{models.RoleUploader, ActionViewStats, false},

		{models.RoleAdmin, ActionManageTracts, true},
		{models.RoleApprover, ActionManageTracts, false},
		{models.RoleAdmin, ActionManageUsers, true},
		{models.RoleApprover, ActionManageUsers, false},
		{models.RoleAdmin, ActionViewAllTracts, true},
		{models.RoleUploader, ActionViewAllTracts, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(tc.role, tc.action), "role=%s action=%s", tc.role, tc.action)
	}
}

func TestAllowedFailsClosed(t *testing.T) {
	assert.False(t, Allowed("", ActionReview))
	assert.False(t, Allowed("superuser", ActionManageUsers))
	assert.False(t, Allowed(models.RoleAdmin, Action("unknown")))
}
