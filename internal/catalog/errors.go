package catalog

import "errors"

// ErrServiceNotFound is returned when no service has the requested name.
var ErrServiceNotFound = errors.New("catalog: service not found")
