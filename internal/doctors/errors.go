package doctors

import "errors"

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrNameRequired      = errors.New("doctor name is required")
	ErrSpecialtyRequired = errors.New("doctor specialty is required")
)
