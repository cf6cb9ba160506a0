package identity

import "errors"

var (
	// ErrInvalidEmail is returned when a user payload has no usable email.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
)
