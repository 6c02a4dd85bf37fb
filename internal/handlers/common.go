// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/farmtrace/agritrace-backend/internal/middleware"
	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// handleServiceError maps service sentinel errors to HTTP responses.
// Unrecognized errors are logged and returned as 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrStatusNotFound),
		errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrResourceNotFound),
		errors.Is(err, services.ErrFarmNotFound),
		errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidLogin):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrRequestResolved):
		utils.ErrorResponse(c, http.StatusForbidden, "transfer request is no longer available")
	case errors.Is(err, services.ErrOwnProductRequest),
		errors.Is(err, services.ErrStaleOwner),
		errors.Is(err, services.ErrDuplicateRequest),
		errors.Is(err, services.ErrRoleNotAllowed),
		errors.Is(err, services.ErrNoPermission):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c)
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.ValidationErrorResp(c, utils.FormatValidationErrors(err))
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser loads the full caller record. Services need the CreatedBy
// field to resolve sub-accounts to their parent account.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, models.RoleKey, bool) {
	userID, ok := middleware.MustGetUserID(c)
	if !ok {
		return nil, "", false
	}

	role, _ := middleware.GetUserRole(c)

	user, err := users.GetUser(userID)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		c.Abort()
		return nil, "", false
	}

	return user, role, true
}
