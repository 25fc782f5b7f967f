// Package grant obtains a credential bundle for a robot from account credentials.
//
// The flow has three legs:
//
//  1. Log in to the accounts service with username and password, yielding a
//     cloud session token.
//  2. Download the robot's TLS certificate from the session-certs service by
//     serial number, and check it was issued to the named robot.
//  3. Open a channel pinned to that certificate (no bearer token yet) and call
//     UserAuthentication with the session token. The robot answers with the
//     client token used as the bearer token from then on.
//
// Flow never persists anything; the caller stores the returned bundle.
// Passwords and tokens are never logged.
package grant
