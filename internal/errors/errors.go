package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeMalformedInput indicates the request body could not be parsed at all.
	ErrCodeMalformedInput ErrorCode = "malformed_input"
	// ErrCodeValidation indicates structurally parseable but semantically invalid input.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeAuthentication indicates no active session.
	ErrCodeAuthentication ErrorCode = "authentication_required"
	// ErrCodeAuthorization indicates an active session with insufficient role or ownership.
	ErrCodeAuthorization ErrorCode = "authorization_denied"
	// ErrCodeNotFound indicates a resource or route was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// MalformedInput creates a new MalformedInput error.
func MalformedInput(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedInput,
		Message: "Invalid JSON body",
		Cause:   cause,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// AuthenticationRequired creates an error signaling the absence of a session.
func AuthenticationRequired() *AppError {
	return &AppError{
		Code:    ErrCodeAuthentication,
		Message: "authentication required",
	}
}

// AuthorizationDenied creates an error signaling insufficient role or ownership.
func AuthorizationDenied(message string) *AppError {
	return &AppError{
		Code:    ErrCodeAuthorization,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// ValidationError carries the ordered field-level messages raised by
// data-layer validation. The message order is preserved from construction;
// the value is immutable once constructed.
type ValidationError struct {
	details []string
}

// NewValidationError constructs a ValidationError from ordered messages.
// The input slice is copied so later mutation cannot leak in.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{details: append([]string(nil), details...)}
}

// Details returns a copy of the ordered field-level messages.
func (e *ValidationError) Details() []string {
	return append([]string(nil), e.details...)
}

// Error implements the error interface by joining the messages.
func (e *ValidationError) Error() string {
	if len(e.details) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.details, ", ")
}

// HasRequiredViolation reports whether any message signals a missing
// required field (case-insensitive substring match on "required").
// "Required field omitted" is a request-shape problem; "field present but
// semantically invalid" is a semantic one, and the two map to different
// HTTP statuses.
func (e *ValidationError) HasRequiredViolation() bool {
	for _, d := range e.details {
		if strings.Contains(strings.ToLower(d), "required") {
			return true
		}
	}
	return false
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsMalformedInput checks if an error is a MalformedInput error.
func IsMalformedInput(err error) bool {
	return isCode(err, ErrCodeMalformedInput)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error carries validation semantics, either as a
// ValidationError or an AppError with the validation code.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || isCode(err, ErrCodeValidation)
}

// IsAuthentication checks if an error is an AuthenticationRequired error.
func IsAuthentication(err error) bool {
	return isCode(err, ErrCodeAuthentication)
}

// IsAuthorization checks if an error is an AuthorizationDenied error.
func IsAuthorization(err error) bool {
	return isCode(err, ErrCodeAuthorization)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// AsValidation extracts a ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
