package domain

import "fmt"

// NotFoundError represents a missing record.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing records.
var ErrNotFound = NotFoundError{}

// ValidationError carries a user-facing message for rejected input.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Is enables errors.Is matching on ValidationError.
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ErrInvalid is the sentinel error for rejected input.
var ErrInvalid = ValidationError{}

// ConflictError signals a lost-update race: the stored record changed since
// the editor loaded it.
type ConflictError struct {
	ID string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("record %s was modified concurrently", e.ID)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// ErrConflict is the sentinel error for concurrent modification.
var ErrConflict = ConflictError{}

// ErrNotAuthorized is returned when the actor lacks the role an operation
// requires outright (operations that can degrade to a suggestion do so
// instead of returning this).
var ErrNotAuthorized = fmt.Errorf("not authorized")
