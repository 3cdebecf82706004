package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError
type (
	// NotFoundError indicates a storyboard or sub-resource was not found
	NotFoundError struct {
		Message string
	}

	// PermissionDeniedError indicates the caller's effective role is
	// insufficient for the attempted operation. Kept distinct from
	// NotFoundError so clients can message "no access" versus "missing".
	PermissionDeniedError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string         { return e.Message }
func (e *PermissionDeniedError) Error() string { return e.Message }
func (e *ValidationError) Error() string       { return e.Message }
func (e *UnauthorizedError) Error() string     { return e.Message }

func (e *NotFoundError) StatusCode() int         { return http.StatusNotFound }
func (e *PermissionDeniedError) StatusCode() int { return http.StatusForbidden }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int     { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")

	// ErrWriteFailed marks a transient store write failure. Autosave writes
	// log it and move on; manual saves return it to the caller. It never
	// reaches the sync controller's status field.
	ErrWriteFailed = errors.New("write failed")
)

func (e *NotFoundError) Is(target error) bool         { return target == ErrNotFound }
func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }
func (e *ValidationError) Is(target error) bool       { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool     { return target == ErrUnauthorized }
