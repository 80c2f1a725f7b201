package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every caller-correctable failure.
var ErrValidation = errors.New("validation error")

var (
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrValidation)
	ErrDuplicateEmail    = fmt.Errorf("%w: email already exists", ErrValidation)
	ErrInvalidRole       = fmt.Errorf("%w: invalid role", ErrValidation)
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")

	// ErrStorage wraps any persistence malfunction. The cause stays in the
	// chain for logging and is never rendered to clients.
	ErrStorage = errors.New("storage failure")
)

// StorageError tags err as a persistence failure for op.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
