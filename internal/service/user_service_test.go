package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/todo-list-api/internal/models"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
)

type mockAdminRepo struct {
	users map[int64]*models.User
	roles map[int64]models.UserRole
}

func (m *mockAdminRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) UpdateRole(ctx context.Context, id int64, role models.UserRole) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	if m.roles == nil {
		m.roles = make(map[int64]models.UserRole)
	}
	m.roles[id] = role
	m.users[id].Role = role
	return nil
}

func (m *mockAdminRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func newAdminRepo(users ...*models.User) *mockAdminRepo {
	repo := &mockAdminRepo{users: make(map[int64]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func TestUserServiceListStripsCredentials(t *testing.T) {
	repo := newAdminRepo(
		&models.User{ID: 1, Username: "root", PasswordHash: "hash", Role: models.RoleSuperAdmin},
		&models.User{ID: 2, Username: "alice", PasswordHash: "hash", Role: models.RoleUser},
	)
	svc := NewUserService(repo, zap.NewNop())

	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 2)
	for _, info := range infos {
		assert.NotEmpty(t, info.Username)
	}
}

func TestUserServiceUpdateRole(t *testing.T) {
	repo := newAdminRepo(&models.User{ID: 2, Username: "alice", Role: models.RoleUser})
	svc := NewUserService(repo, zap.NewNop())

	require.NoError(t, svc.UpdateRole(context.Background(), 2, models.RoleAdmin))
	assert.Equal(t, models.RoleAdmin, repo.users[2].Role)
}

func TestUserServiceUpdateRoleUnknownRole(t *testing.T) {
	repo := newAdminRepo(&models.User{ID: 2, Username: "alice", Role: models.RoleUser})
	svc := NewUserService(repo, zap.NewNop())

	err := svc.UpdateRole(context.Background(), 2, models.UserRole("OVERLORD"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RoleUser, repo.users[2].Role)
}

func TestUserServiceUpdateRoleMissingUser(t *testing.T) {
	svc := NewUserService(newAdminRepo(), zap.NewNop())

	err := svc.UpdateRole(context.Background(), 99, models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newAdminRepo(&models.User{ID: 2, Username: "alice", Role: models.RoleUser})
	svc := NewUserService(repo, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), 2, models.RoleAdmin))
	assert.Empty(t, repo.users)
}

// An ADMIN actor may not remove a SUPERADMIN account.
func TestUserServiceDeleteSuperAdminGuard(t *testing.T) {
	repo := newAdminRepo(&models.User{ID: 1, Username: "root", Role: models.RoleSuperAdmin})
	svc := NewUserService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), 1, models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.users, 1)

	require.NoError(t, svc.Delete(context.Background(), 1, models.RoleSuperAdmin))
	assert.Empty(t, repo.users)
}

func TestUserServiceDeleteMissing(t *testing.T) {
	svc := NewUserService(newAdminRepo(), zap.NewNop())

	err := svc.Delete(context.Background(), 99, models.RoleSuperAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
