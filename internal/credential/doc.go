// Package credential stores the artifacts needed to open an authenticated
// channel to a specific robot.
//
// A Bundle is keyed by the robot's device name ("Vector-A1B2") and carries the
// robot's network address, its self-signed TLS certificate (PEM) and the bearer
// token issued by the robot during the authorization grant. Bundles are written
// once by the grant flow and re-saved only when the robot's address changes.
//
// Two Store implementations are provided:
//   - SQLiteStore: the default, persisted in the vectorlink database
//   - MemoryStore: process-local, for tests and embedding
//
// Security Considerations:
//   - Tokens are bearer credentials; anyone holding one can command the robot
//   - Never log Bundle values; use Bundle.String which redacts the token
package credential
