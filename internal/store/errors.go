package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when an insert would duplicate a username.
var ErrUsernameTaken = errors.New("username already taken")

// ValidationError reports a domain constraint violated at write time.
// The transaction is rolled back before it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
