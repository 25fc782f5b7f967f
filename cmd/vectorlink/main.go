// vectorlink - client session layer for Anki/DDL Vector robots
//
// This is the main entry point for the vectorlink application. It provides:
//   - serve: connect to a robot and relay its events to MQTT, InfluxDB and the status API
//   - grant: run the cloud authorization grant and store the robot credential
//   - credentials: list or delete stored robot credentials
//   - token: mint a status API access token
//   - version: print build information
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vectorlink/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/vectorlink.yaml"

// configEnvVar overrides defaultConfigPath when --config is not given.
const configEnvVar = "VECTORLINK_CONFIG"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "vectorlink",
		Short:         "Client session layer for Vector robots",
		Long:          "vectorlink authenticates to a Vector robot over gRPC, listens to its event stream, negotiates behaviour control and relays what it sees to MQTT, InfluxDB and a small status API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to the configuration file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newGrantCmd(opts),
		newCredentialsCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "vectorlink %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}

// getConfigPath returns the configuration file path.
// An explicit flag wins, then VECTORLINK_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadOptionalConfig loads the config file when it exists and falls back to
// the built-in defaults (with environment overrides) when it does not.
// An explicitly named file must exist.
func loadOptionalConfig(flagValue string) (*config.Config, error) {
	path := getConfigPath(flagValue)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && flagValue == "" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
