// Package api implements vectorlink's HTTP status API and WebSocket feed.
//
// This package provides:
//   - Read-only REST endpoints for robot battery, version, network and control state
//   - A WebSocket hub that fans relayed robot events out to subscribed clients
//   - HS256 JWT bearer authentication on everything except /health
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Security
//
// Tokens are minted offline with "vectorlink token" and checked by
// signature and expiry. Browsers cannot set headers on WebSocket upgrades,
// so /ws also accepts the token as an access_token query parameter.
//
// # Graceful Degradation
//
// The server runs while the robot is disconnected; robot endpoints answer
// 503 until a session is established.
package api
