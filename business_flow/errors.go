// Package businessflow contains the core business logic and use cases of LinkHub
package businessflow

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds; every error a flow returns to a handler wraps at most one of these
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailAlreadyExists = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrUsernameTaken      = fmt.Errorf("username is already taken: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("invalid or expired token: %w", ErrUnauthenticated)
	ErrOAuthFailed        = fmt.Errorf("google login failed: %w", ErrUnauthenticated)
	ErrOAuthUnavailable   = errors.New("google login is not configured")

	// Link-related errors
	ErrLinkNotFound    = fmt.Errorf("link %w", ErrNotFound)
	ErrLinkSetMismatch = fmt.Errorf("links must list every link you own exactly once: %w", ErrValidation)

	// Analytics errors
	ErrAnalyticsForbidden = fmt.Errorf("analytics of another user: %w", ErrForbidden)
)

// ValidationError carries field level detail for a rejected request
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another invalid field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// OrNil returns nil when no field was recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// BusinessError wraps infrastructure failures with a stable code
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsLinkNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsUsernameTaken(err error) bool {
	return errors.Is(err, ErrUsernameTaken)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAnalyticsForbidden(err error) bool {
	return errors.Is(err, ErrAnalyticsForbidden)
}

func IsOAuthUnavailable(err error) bool {
	return errors.Is(err, ErrOAuthUnavailable)
}

// ValidationFields extracts field detail from err, if any
func ValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
