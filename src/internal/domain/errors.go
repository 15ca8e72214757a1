package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserExists is returned when registering a username already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by user lookups that matched nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrItemNotFound is returned by library lookups that matched nothing.
	ErrItemNotFound = errors.New("item not found")
)

// ValidationError rejects a request carrying missing or malformed fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthError rejects a request whose credentials are missing or wrong.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}
