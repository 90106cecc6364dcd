// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDealershipNotFound indicates a dealership was not found by the given identifier.
	ErrDealershipNotFound = errors.New("dealership not found")

	// ErrUserNotFound indicates a user was not found by the given identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates another user already holds the email address.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidSortField indicates a sort field outside AllowedSortFields.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// RecordError wraps repository errors with the record being operated on.
type RecordError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Save")
	Record string // Record type ("dealership", "user")
	ID     string // Record ID if applicable
	Err    error  // Underlying error
}

func (e *RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Record, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Record, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDealershipError creates a new dealership error with context.
func NewDealershipError(op, id string, err error) *RecordError {
	return &RecordError{Op: op, Record: "dealership", ID: id, Err: err}
}

// NewUserError creates a new user error with context.
func NewUserError(op, id string, err error) *RecordError {
	return &RecordError{Op: op, Record: "user", ID: id, Err: err}
}

// IsDealershipNotFound checks if an error indicates a dealership was not found.
func IsDealershipNotFound(err error) bool {
	return errors.Is(err, ErrDealershipNotFound)
}

// IsUserNotFound checks if an error indicates a user was not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsEmailTaken checks if an error indicates a duplicate email.
func IsEmailTaken(err error) bool {
	return errors.Is(err, ErrEmailTaken)
}

// IsInvalidSortField checks if an error indicates a rejected sort field.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
