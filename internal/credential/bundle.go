package credential

import (
	"fmt"
	"time"
)

// Bundle is the set of artifacts needed to reach and authenticate to one robot.
//
// Treat a Bundle as immutable once issued; use WithAddress to derive an
// updated copy.
type Bundle struct {
	// DeviceID is the robot's device name, also the CN of its certificate.
	DeviceID string

	// Address is host or host:port of the robot's gateway.
	Address string

	// Serial is the robot's ESN, recorded by the grant flow.
	Serial string

	// Certificate is the robot's PEM-encoded TLS certificate.
	Certificate []byte

	// Token is the bearer token sent on every RPC.
	Token string

	// UpdatedAt is set by the store on save.
	UpdatedAt time.Time
}

// Validate checks the fields required to open a channel.
func (b *Bundle) Validate() error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil bundle", ErrInvalidBundle)
	case b.DeviceID == "":
		return fmt.Errorf("%w: device id is required", ErrInvalidBundle)
	case len(b.Certificate) == 0:
		return fmt.Errorf("%w: certificate is required", ErrInvalidBundle)
	case b.Token == "":
		return fmt.Errorf("%w: token is required", ErrInvalidBundle)
	}
	return nil
}

// WithAddress returns a copy of b pointing at address.
func (b *Bundle) WithAddress(address string) *Bundle {
	c := *b
	c.Certificate = append([]byte(nil), b.Certificate...)
	c.Address = address
	return &c
}

// String implements fmt.Stringer without exposing the token.
func (b *Bundle) String() string {
	if b == nil {
		return "<nil bundle>"
	}
	return fmt.Sprintf("%s@%s (token redacted)", b.DeviceID, b.Address)
}
