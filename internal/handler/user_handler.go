package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/todo-list-api/internal/models"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
	"github.com/noah-isme/todo-list-api/pkg/response"
)

type userService interface {
	List(ctx context.Context) ([]models.UserInfo, error)
	UpdateRole(ctx context.Context, userID int64, role models.UserRole) error
	Delete(ctx context.Context, userID int64, actorRole models.UserRole) error
}

// UserHandler handles administrative user management endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List all user accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/getUsers [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}

// UpdateRole godoc
// @Summary Update user role
// @Description Assign a new role to a user
// @Tags Admin
// @Produce json
// @Param userId query int true "User ID"
// @Param role query string true "New role"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/updateRole [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid userId"))
		return
	}

	role := models.UserRole(c.Query("role"))
	if err := h.service.UpdateRole(c.Request.Context(), userID, role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete godoc
// @Summary Delete user
// @Description Delete a user account
// @Tags Admin
// @Produce json
// @Param userId query int true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/delete [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid userId"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
