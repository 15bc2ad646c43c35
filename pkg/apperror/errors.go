package apperror

import "errors"

// Kind classifies an application error.
type Kind string

const (
	// KindFormat marks a store that exists but is not well-shaped. Callers
	// recover locally by substituting an empty collection and surfacing a
	// warning.
	KindFormat Kind = "format"
	// KindValidation marks a rejected operation; never retried automatically.
	KindValidation Kind = "validation"
	// KindPersistence marks a failed write; in-memory state is left as
	// attempted and the caller must re-attempt explicitly.
	KindPersistence Kind = "persistence"
	// KindNotFound marks a missing record.
	KindNotFound Kind = "not_found"
)

// AppError represents an application error with a kind and optional cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrNoProductSelected   = &AppError{Kind: KindValidation, Message: "no product selected"}
	ErrNoPayableItem       = &AppError{Kind: KindValidation, Message: "no item can be paid"}
	ErrNothingToPay        = &AppError{Kind: KindValidation, Message: "nothing to pay"}
	ErrCannotDecrement     = &AppError{Kind: KindValidation, Message: "item amount cannot go below one"}
	ErrInsufficientBalance = &AppError{Kind: KindValidation, Message: "VIP account balance not enough"}
	ErrInsufficientPayment = &AppError{Kind: KindValidation, Message: "payment not enough"}
)

// NewFormatError creates a format error wrapping its cause.
func NewFormatError(message string, cause error) *AppError {
	return &AppError{Kind: KindFormat, Message: message, Err: cause}
}

// NewValidationError creates a validation error with a custom message.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewPersistenceError creates a persistence error wrapping its cause.
func NewPersistenceError(message string, cause error) *AppError {
	return &AppError{Kind: KindPersistence, Message: message, Err: cause}
}

// NewNotFoundError creates a not found error for a resource.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

// IsKind checks whether an error is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to an AppError if possible.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindPersistence, Message: err.Error()}
}
