// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// AuthRequired validates the bearer token and stores the caller's
// identity on the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "authorization header required")
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenParts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "could not validate credentials")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c, "could not validate credentials")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", models.RoleKey(claims.Role))
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set.
func RequireRoles(policy *models.RolePolicy, allowed []models.RoleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		if !policy.Allows(allowed, role.(models.RoleKey)) {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the authenticated caller's id from the context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated caller's role key.
func GetUserRole(c *gin.Context) (models.RoleKey, bool) {
	value, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	role, ok := value.(models.RoleKey)
	return role, ok
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, utils.ErrorDetail{Detail: "internal server error"})
}

// MustGetUserID is for handlers behind AuthRequired; it aborts with 500
// when the context was not populated.
func MustGetUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := GetUserID(c)
	if !ok {
		abortInternal(c)
		return uuid.Nil, false
	}
	return id, true
}
