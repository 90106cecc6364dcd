// Package wizard provides step-gated form wizards: a typed draft edited field by field,
// validated one step at a time and committed through a single submission gate.
package wizard

import (
	"errors"
	"fmt"
)

// Contract errors. None of these change wizard state.
var (
	// ErrSubmitting is returned for every mutation attempted while a submission is in flight.
	ErrSubmitting = errors.New("wizard is submitting")

	// ErrClosed is returned once the wizard was cancelled or committed.
	ErrClosed = errors.New("wizard is closed")

	// ErrTerminalStep is returned by Next on the last step; only Submit applies there.
	ErrTerminalStep = errors.New("no step after the terminal step")

	// ErrNotTerminalStep is returned by Submit before the last step is reached.
	ErrNotTerminalStep = errors.New("submit is only allowed from the terminal step")

	// ErrInvalidStep is returned by GoTo for a step that is not a visited, earlier step.
	ErrInvalidStep = errors.New("invalid step")

	// ErrUnknownField indicates a field name that the wizard does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrFieldNotEditable indicates a field that belongs to a step other than the current one.
	ErrFieldNotEditable = errors.New("field is not editable on the current step")

	// ErrInvalidValue indicates a value that cannot be decoded into the field type.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrUnknownKind indicates a wizard kind with no registered factory.
	ErrUnknownKind = errors.New("unknown wizard kind")

	// ErrSessionNotFound indicates an id with no open wizard.
	ErrSessionNotFound = errors.New("wizard session not found")
)

// FieldError is a commit failure that identifies the offending field, such as a
// duplicate email reported by the record store.
type FieldError struct {
	Name    string
	Message string
	Err     error
}

// NewFieldError creates a field-scoped commit error.
func NewFieldError(name, message string, err error) *FieldError {
	return &FieldError{Name: name, Message: message, Err: err}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Field returns the name of the field the error belongs to.
func (e *FieldError) Field() string {
	return e.Name
}

// PatchError lists the schema violations of a rejected field patch.
type PatchError struct {
	Problems []string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("invalid field patch: %v", e.Problems)
}

func (e *PatchError) Unwrap() error {
	return ErrInvalidValue
}

// IsContractError reports whether err is a precondition violation rather than a
// user-correctable validation failure.
func IsContractError(err error) bool {
	return errors.Is(err, ErrSubmitting) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, ErrTerminalStep) ||
		errors.Is(err, ErrNotTerminalStep) ||
		errors.Is(err, ErrInvalidStep) ||
		errors.Is(err, ErrFieldNotEditable)
}

// ErrorMap maps a field name to its current validation message. A present key means
// the field is invalid.
type ErrorMap map[string]string

// Empty reports whether no field is invalid.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

func (m ErrorMap) clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
