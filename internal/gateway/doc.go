// Package gateway is the transport boundary to the robot's external interface.
//
// The robot exposes a gRPC service over TLS. Every call is authorised by a
// bearer token carried in the "authorization" metadata key, and the server is
// verified against the certificate issued to that robot during the grant flow.
//
// This package provides:
//   - Hand-written wire messages for the calls vectorlink uses (messages.go)
//   - Their protobuf encoding, built on protowire (wire.go)
//   - A per-call proto codec, never registered globally (codec.go)
//   - The Client interface and its gRPC implementation (client.go)
//   - Bearer token interceptors (auth.go)
//   - Dial, which builds a certificate-pinned channel and waits for readiness.
//     Robot certificates carry only a CN, so the peer is matched against the
//     pinned certificate and its CN instead of hostname verification.
//
// Higher layers (session, events, control, vector) depend on the Client
// interface only, so tests substitute scripted fakes.
//
// Errors:
//   - ErrCommunicationFault: a completed call returned a non-success status
//   - ErrStreamFault: an open stream terminated abnormally
//   - ErrHandshakeFailed: the robot presented a certificate that is not pinned
package gateway
