// Package apperror defines the typed error taxonomy shared by all layers.
//
// Services return these errors; the HTTP layer maps them to status codes in
// one place (handler.writeError). Several constructors are deliberately
// generic in their messages: login failures never say whether the email is
// registered, 401s never say why the token was rejected, and 404s never say
// whether the record exists under another account.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers check these with errors.Is after the chain has
// been wrapped by services and repositories.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrDependency     = errors.New("dependency failure")
)

// AppError carries a sentinel plus a human-readable message.
type AppError struct {
	Err     error  // sentinel, reachable via errors.Is
	Message string // safe to show to the client
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports malformed or disallowed client input.
// No mutation has been performed when this is returned.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail reports a violation of the users.email unique constraint.
func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "email is already in use",
		Field:   "email",
	}
}

// Unauthenticated reports a failed login. The message is identical for
// "email not found" and "wrong password" so callers cannot enumerate
// registered accounts.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrAuthentication,
		Message: "unable to login",
	}
}

// Unauthorized reports a missing, malformed, or revoked session token.
// The message never distinguishes between those causes.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "please authenticate",
	}
}

// NotFound reports an absent resource. It is also returned when the resource
// exists but belongs to a different owner; the two cases must stay
// indistinguishable.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Dependency reports a failing collaborator (storage, signing). The wrapped
// cause is kept for logs; the message stays generic for clients.
func Dependency(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrDependency, op, err),
		Message: "an internal error occurred",
	}
}
