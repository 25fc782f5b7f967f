package session

import "errors"

// Domain-specific errors for the connection manager.
var (
	// ErrConnectionTimeout is returned when the channel is not ready within the connect window.
	ErrConnectionTimeout = errors.New("session: connection timeout")

	// ErrConnectionFailed is returned for any other channel setup failure.
	ErrConnectionFailed = errors.New("session: connection failed")

	// ErrNotConnected is returned by Client when no channel is live.
	ErrNotConnected = errors.New("session: not connected")
)
