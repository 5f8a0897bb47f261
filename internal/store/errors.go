package store

import (
	"errors"
	"strings"
)

// Service-level error taxonomy, translated to HTTP statuses at the API
// boundary (404 and 422 respectively).
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. The modernc driver surfaces these as plain error strings.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
