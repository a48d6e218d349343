package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/todo-list-api/internal/models"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
)

type adminUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.UserRole) error
	Delete(ctx context.Context, id int64) error
}

// UserService handles administrative user management.
type UserService struct {
	repo   adminUserRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo adminUserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns every account without credential material.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Info())
	}
	return infos, nil
}

// UpdateRole assigns a new role to the given user.
func (s *UserService) UpdateRole(ctx context.Context, userID int64, role models.UserRole) error {
	if !role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	s.logger.Info("user role updated", zap.Int64("user_id", userID), zap.String("role", string(role)))
	return nil
}

// Delete removes a user account. An ADMIN actor may not delete a SUPERADMIN.
func (s *UserService) Delete(ctx context.Context, userID int64, actorRole models.UserRole) error {
	target, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if target.Role == models.RoleSuperAdmin && actorRole != models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete a super admin account")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}
