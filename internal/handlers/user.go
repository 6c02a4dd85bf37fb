// internal/handlers/user.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/v1/users (admin only)
func (h *UserHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.users.ListUsers(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if role != models.RoleAdmin && caller.ID != id && caller.AccountID() != id {
		utils.ForbiddenResponse(c, "")
		return
	}

	user, err := h.users.GetUser(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update handles PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateUser(id, &req, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword handles PUT /api/v1/auth/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.ChangePassword(caller.ID, &req); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateSubAccount handles POST /api/v1/sub-accounts
func (h *UserHandler) CreateSubAccount(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.CreateSubAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateSubAccount(&req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListSubAccounts handles GET /api/v1/sub-accounts
func (h *UserHandler) ListSubAccounts(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	result, err := h.users.ListSubAccounts(caller.AccountID(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/v1/users/:id (admin only)
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
