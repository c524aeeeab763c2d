package id

import "errors"

var (
	// ErrInvalidUUID indicates the string is not a valid UUID.
	ErrInvalidUUID = errors.New("invalid UUID format")
)
