// Package logging provides structured logging for vectorlink.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the session layer, relay and API.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected", "robot", cfg.Robot.Name)
//
// # Security
//
// Never log robot tokens, session tokens, certificates or account passwords.
package logging
