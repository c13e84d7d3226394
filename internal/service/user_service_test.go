package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tractshare/tract-api/internal/dto"
	"github.com/tractshare/tract-api/internal/models"
	appErrors "github.com/tractshare/tract-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	deleted []string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ActivityCounts(ctx context.Context, userID string) (int, int, error) {
	return 2, 5, nil
}

type mockMailer struct {
	emails    []string
	passwords []string
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, email string, tempPassword string) error {
	m.emails = append(m.emails, email)
	m.passwords = append(m.passwords, tempPassword)
	return nil
}

func newUserService(repo *mockUserRepo, mailer Mailer) *UserService {
	return NewUserService(repo, mailer, validator.New(), nil, zap.NewNop())
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "admin-1", Role: models.RoleAdmin})
	svc := newUserService(repo, nil)

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.users, "admin-1")
}

func TestDeleteOtherUser(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "admin-1", Role: models.RoleAdmin},
		&models.User{ID: "u2", Role: models.RoleUser},
	)
	svc := newUserService(repo, nil)

	err := svc.Delete(context.Background(), "admin-1", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, repo.deleted)
}

func TestUpdateRoleChange(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "u1@example.com", Role: models.RoleUser})
	svc := newUserService(repo, nil)

	role := models.RoleApprover
	user, err := svc.Update(context.Background(), "u1", dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleApprover, user.Role)
}

func TestUpdateEmailConflict(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "u1", Email: "u1@example.com"},
		&models.User{ID: "u2", Email: "taken@example.com"},
	)
	svc := newUserService(repo, nil)

	email := "taken@example.com"
	_, err := svc.Update(context.Background(), "u1", dto.UpdateUserRequest{Email: &email})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordNeverEchoesCredential(t *testing.T) {
	oldHash := "old-hash"
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "u1@example.com", PasswordHash: &oldHash})
	mailer := &mockMailer{}
	svc := newUserService(repo, mailer)

	err := svc.ResetPassword(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, mailer.passwords, 1)
	assert.Equal(t, []string{"u1@example.com"}, mailer.emails)

	stored := repo.users["u1"].PasswordHash
	require.NotNil(t, stored)
	assert.NotEqual(t, oldHash, *stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored), []byte(mailer.passwords[0])))
}

func TestGetAnnotatesActivity(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "u1@example.com"})
	svc := newUserService(repo, nil)

	detail, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, detail.TractsCount)
	assert.Equal(t, 5, detail.DownloadsCount)
}
