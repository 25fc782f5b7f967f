// Package auth issues and verifies the bearer tokens of the status API.
//
// Tokens are HS256 JWTs signed with security.jwt.secret. They are minted
// offline by "vectorlink token" and validated by signature and expiry only;
// there is no user database and no refresh flow.
package auth
