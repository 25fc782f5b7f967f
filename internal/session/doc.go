// Package session owns the authenticated channel to one robot.
//
// A Manager moves between three states:
//
//	Disconnected --Connect--> Connecting --ready--> Connected
//	Connecting --timeout/failure--> Disconnected
//	Connected --Disconnect--> Disconnected
//
// Connect and Disconnect are idempotent. While Connected, Client returns the
// live gateway.Client shared by the event dispatcher, the control arbiter and
// unary callers. After Disconnect, Client returns ErrNotConnected.
//
// When a connection succeeds on an address other than the one on file (an
// override), the credential bundle is re-saved with the new address.
package session
