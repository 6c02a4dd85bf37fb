// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorDetail is the error body for every non-2xx response.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Detail string            `json:"detail"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func ErrorResponse(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, ErrorDetail{Detail: detail})
}

func ValidationErrorResp(c *gin.Context, errors []ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Detail: "validation failed",
		Errors: errors,
	})
}

func NotFoundResponse(c *gin.Context, resource string) {
	ErrorResponse(c, http.StatusNotFound, resource+" not found")
}

func UnauthorizedResponse(c *gin.Context, detail string) {
	if detail == "" {
		detail = "could not validate credentials"
	}
	ErrorResponse(c, http.StatusUnauthorized, detail)
}

func ForbiddenResponse(c *gin.Context, detail string) {
	if detail == "" {
		detail = "the user doesn't have enough privileges"
	}
	ErrorResponse(c, http.StatusForbidden, detail)
}

func InternalErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}
