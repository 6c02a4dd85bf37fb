// internal/services/errors.go
package services

import "errors"

// Sentinel errors returned by services. Handlers map these to HTTP
// status codes; anything not listed here is treated as a 500.
var (
	ErrNotFound          = errors.New("not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrRequestNotFound   = errors.New("transfer request not found")
	ErrStatusNotFound    = errors.New("transfer status not found")
	ErrRoleNotFound      = errors.New("role not found")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrFarmNotFound      = errors.New("farm not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidLogin      = errors.New("incorrect email or password")
	ErrOwnProductRequest = errors.New("cannot request transfer of your own product")
	ErrStaleOwner        = errors.New("product owner has changed")
	ErrDuplicateRequest  = errors.New("a pending transfer request already exists")
	ErrRequestResolved   = errors.New("transfer request already resolved")
	ErrNoPermission      = errors.New("no permission for this operation")
	ErrRoleNotAllowed    = errors.New("role not allowed for registration")
	ErrFileTooLarge      = errors.New("file exceeds maximum allowed size")
)
