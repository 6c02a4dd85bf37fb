// internal/utils/validator.go
package utils

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators adds our custom validation rules to the gin
// binding validator.
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("strong_password", validateStrongPassword)
}

// validateStrongPassword requires at least 8 characters with one upper,
// one lower and one digit.
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}

// FormatValidationErrors turns validator errors into field/message pairs
// suitable for the 422 response body.
func FormatValidationErrors(err error) []ValidationError {
	var out []ValidationError

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "body", Message: err.Error()}}
	}

	for _, fieldError := range validationErrors {
		out = append(out, ValidationError{
			Field:   fieldError.Field(),
			Message: messageForTag(fieldError),
		})
	}

	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uuid":
		return "must be a valid UUID"
	case "strong_password":
		return "must be at least 8 characters with upper, lower and digit"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "invalid value"
	}
}
