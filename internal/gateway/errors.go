package gateway

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the gateway transport.
var (
	// ErrCommunicationFault is matched by every *CommunicationFault.
	ErrCommunicationFault = errors.New("gateway: communication fault")

	// ErrStreamFault is matched by every *StreamFault.
	ErrStreamFault = errors.New("gateway: stream fault")

	// ErrInvalidCertificate is returned when the pinned certificate cannot be parsed.
	ErrInvalidCertificate = errors.New("gateway: invalid certificate")

	// ErrHandshakeFailed is returned by Dial when the TLS handshake with the
	// robot fails, including when its certificate does not match the pin.
	ErrHandshakeFailed = errors.New("gateway: handshake failed")
)

// CommunicationFault reports a completed RPC whose response status was not a success code.
type CommunicationFault struct {
	// Method is the short RPC name, e.g. "BatteryState".
	Method string

	// Code is the status code the robot returned.
	Code ResponseCode
}

func (f *CommunicationFault) Error() string {
	return fmt.Sprintf("gateway: %s returned status %s", f.Method, f.Code)
}

// Is makes errors.Is(err, ErrCommunicationFault) true for any fault.
func (f *CommunicationFault) Is(target error) bool {
	return target == ErrCommunicationFault
}

// StreamFault reports a stream that ended with a transport error rather
// than a clean close or cancellation.
type StreamFault struct {
	Stream string
	Err    error
}

func (f *StreamFault) Error() string {
	return fmt.Sprintf("gateway: %s stream failed: %v", f.Stream, f.Err)
}

func (f *StreamFault) Unwrap() error {
	return f.Err
}

// Is makes errors.Is(err, ErrStreamFault) true for any fault.
func (f *StreamFault) Is(target error) bool {
	return target == ErrStreamFault
}

// CheckStatus converts a response status into a *CommunicationFault when it
// does not carry a success code. A missing status is treated as UNKNOWN.
func CheckStatus(method string, status *ResponseStatus) error {
	if status.Succeeded() {
		return nil
	}
	code := ResponseUnknown
	if status != nil {
		code = status.Code
	}
	return &CommunicationFault{Method: method, Code: code}
}
