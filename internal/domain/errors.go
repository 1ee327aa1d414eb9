package domain

import "errors"

var (
	// ErrNotFound indicates that no entry exists with the requested id.
	ErrNotFound = errors.New("weight entry not found")
	// ErrStoreUnavailable indicates that the persistence layer could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a missing or out-of-range field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
