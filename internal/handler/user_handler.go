package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"signmeup/internal/model"
	"signmeup/internal/service"
)

// UserHandler serves user administration and the caller's profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateRoleRequest carries the new role. It is checked by the service so
// unknown roles get the INVALID_ROLE code.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRoleResponse represents a role change response.
type UpdateRoleResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateRoleRequest true "New role (USER or ADMIN)"
// @Success 200 {object} UpdateRoleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/users/{id} [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateRole(c.Request().Context(), actor, id, model.Role(req.Role))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, UpdateRoleResponse{
		Message: "Role updated successfully",
		User:    user,
	})
}

// Profile godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
