// Package apperr defines the closed set of errors the service reports to
// clients and their HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ayush/lms-accounts/backend/internal/store"
)

// Kind tags an Error. The set is closed; every kind has a status code.
type Kind int

const (
	Internal Kind = iota
	Validation
	DuplicateEmail
	InvalidCode
	InvalidToken
	TokenExpired
	MissingCredentials
	InvalidCredentials
	DispatchFailed
	InvalidID
	Unauthorized
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case Validation:
		return "validation"
	case DuplicateEmail:
		return "duplicate_email"
	case InvalidCode:
		return "invalid_code"
	case InvalidToken:
		return "invalid_token"
	case TokenExpired:
		return "token_expired"
	case MissingCredentials:
		return "missing_credentials"
	case InvalidCredentials:
		return "invalid_credentials"
	case DispatchFailed:
		return "dispatch_failed"
	case InvalidID:
		return "invalid_id"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code reported for the kind.
func (k Kind) Status() int {
	switch k {
	case Validation, DuplicateEmail, InvalidCode, TokenExpired,
		MissingCredentials, InvalidCredentials, DispatchFailed, InvalidID:
		return http.StatusBadRequest
	case InvalidToken, Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Internal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// InternalMessage is the only message clients see for unrecognized failures.
const InternalMessage = "Internal server error!"

// Error is a client-facing failure. Message is safe to return to callers;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// New creates an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf reports the kind of err after rewriting it with From.
func KindOf(err error) Kind {
	return From(err).Kind
}

// From rewrites any error into the taxonomy. Errors that already are *Error
// pass through; store sentinels map to their client kinds; everything else
// becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return Wrap(DuplicateEmail, "Email already exist!", err)
	case errors.Is(err, store.ErrInvalidID):
		return Wrap(InvalidID, "Resource not found. Invalid _id", err)
	case errors.Is(err, store.ErrNotFound):
		return Wrap(NotFound, "Resource not found", err)
	}
	return Wrap(Internal, InternalMessage, err)
}
