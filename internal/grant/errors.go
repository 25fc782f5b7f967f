package grant

import "errors"

// Domain-specific errors for the grant flow.
var (
	// ErrLoginFailed is returned when the accounts service rejects the credentials.
	ErrLoginFailed = errors.New("grant: account login failed")

	// ErrCertificateFetch is returned when the robot certificate cannot be downloaded.
	ErrCertificateFetch = errors.New("grant: certificate download failed")

	// ErrCertificateMismatch is returned when the certificate is not issued to the named robot.
	ErrCertificateMismatch = errors.New("grant: certificate does not match robot name")

	// ErrUnauthorized is returned when the robot refuses the session token.
	ErrUnauthorized = errors.New("grant: robot refused authorization")

	// ErrInvalidRequest is returned for missing inputs.
	ErrInvalidRequest = errors.New("grant: invalid request")
)
