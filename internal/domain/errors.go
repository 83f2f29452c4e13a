package domain

import "errors"

// ErrNotFound and related errors describe lookup and transport failures.
var (
	// ErrNotFound signals a record absent from the queried namespace.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable signals the registry could not be reached or answered
	// with a server fault. Callers may retry; a miss wrapped in ErrNotFound
	// is final for the queried namespace.
	ErrUnavailable = errors.New("registry unavailable")
)
