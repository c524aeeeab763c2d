// Package id provides identifier generation for documents, jobs and sessions.
package id

import (
	"github.com/google/uuid"
)

// New returns a new UUID v4 string.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether s is a valid UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Parse parses a UUID string. It returns ErrInvalidUUID when s is not a
// well-formed UUID.
func Parse(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, ErrInvalidUUID
	}
	return u, nil
}
