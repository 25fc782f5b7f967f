// Package config handles loading and validating vectorlink configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The JWT secret must be set before enabling the status API
//   - Robot credentials never live in the config file; they are kept in the
//     credential store (SQLite) written by the grant command
//
// Usage:
//
//	cfg, err := config.Load("configs/vectorlink.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Robot.Name)
package config
