// Package services implements the dealership, user and reference option operations.
package services

import (
	"errors"
	"fmt"

	"github.com/carsna/carsna/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidSortField      = errors.New("invalid sort field")
	ErrInvalidSortOrder      = errors.New("invalid sort order")
	ErrInvalidStatus         = errors.New("invalid dealership status")
	ErrDealershipRequired    = errors.New("role requires a dealership")
	ErrDealershipUnavailable = errors.New("dealership cannot accept users")

	// Missing records (404 Not Found).
	ErrDealershipNotFound = persistence.ErrDealershipNotFound
	ErrUserNotFound       = persistence.ErrUserNotFound
	ErrUnknownOptionKind  = errors.New("unknown option kind")

	// Business Logic Conflicts (409 Conflict).
	ErrEmailTaken        = persistence.ErrEmailTaken
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrDealershipRequired) ||
		errors.Is(err, ErrDealershipUnavailable)
}

// IsNotFound checks if an error should return HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDealershipNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrUnknownOptionKind)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidTransition)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
