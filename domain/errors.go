package domain

import "errors"

// ErrNotFound is returned by stores when no task matches an identifier.
var ErrNotFound = errors.New("task not found")

// ValidationError describes a request rejected before reaching the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

var (
	ErrMissingFields     = &ValidationError{Msg: "missing required fields: title and status are required"}
	ErrEmptyTitle        = &ValidationError{Msg: "title cannot be empty"}
	ErrEmptyDescription  = &ValidationError{Msg: "description cannot be empty"}
	ErrInvalidStatus     = &ValidationError{Msg: "invalid status: must be one of todo, in-progress, done"}
	ErrInvalidID         = &ValidationError{Msg: "invalid task id format"}
	ErrInvalidPatchField = &ValidationError{Msg: "invalid field type in update"}
)

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
