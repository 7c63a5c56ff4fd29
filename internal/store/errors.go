package store

import "errors"

var (
	// ErrNotFound indicates no account matched the lookup.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateEmail is returned when the unique email constraint rejects a write.
	ErrDuplicateEmail = errors.New("store: duplicate email")
	// ErrInvalidID indicates an identifier that is not valid for the backend.
	ErrInvalidID = errors.New("store: invalid id")
)
