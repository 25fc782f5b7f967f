package credential

import "errors"

// Domain errors for the credential package.
var (
	// ErrNotFound is returned when no bundle is stored for a device.
	ErrNotFound = errors.New("credential: not found")

	// ErrInvalidBundle is returned when a bundle fails validation on save.
	ErrInvalidBundle = errors.New("credential: invalid bundle")
)
