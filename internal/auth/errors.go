package auth

import "errors"

var (
	// ErrUnauthenticated covers missing credentials and unknown emails at issue time.
	ErrUnauthenticated = errors.New("unauthorized access")

	// ErrInvalidCredential is returned for bad signatures, wrong algorithms and expired tokens.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrForbidden is returned when a verified caller lacks the required identity or role.
	ErrForbidden = errors.New("forbidden access")

	// ErrSigningDisabled is returned when no signing secret is configured.
	ErrSigningDisabled = errors.New("credential signing disabled")
)
