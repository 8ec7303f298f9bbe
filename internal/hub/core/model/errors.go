package model

import "errors"

var (
	// ErrNotFound is returned by directory lookups for unknown ids.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a connection or command fails an
	// authorization check.
	ErrUnauthorized = errors.New("unauthorized")
)
