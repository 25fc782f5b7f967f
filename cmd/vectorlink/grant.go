package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// passwordEnvVar supplies the account password when --password is omitted,
// keeping it out of shell history.
const passwordEnvVar = "VECTORLINK_PASSWORD"

type grantOptions struct {
	name     string
	ip       string
	serial   string
	username string
	password string
}

func newGrantCmd(root *rootOptions) *cobra.Command {
	opts := &grantOptions{}

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Authorize this client with a robot and store its credential",
		Long: "grant logs in to the robot's cloud account, fetches the robot's session certificate, " +
			"exchanges the session for a client token on the robot itself and stores the result " +
			"in the credential database.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOptionalConfig(root.configPath)
			if err != nil {
				return err
			}
			if opts.name == "" {
				opts.name = cfg.Robot.Name
			}
			if opts.ip == "" {
				opts.ip = cfg.Robot.Address
			}
			if opts.password == "" {
				opts.password = os.Getenv(passwordEnvVar)
			}

			ctx := cmd.Context()
			db, store, err := openStore(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Read-mostly handle, nothing to flush

			robot := newRobot(cfg, store)
			bundle, err := robot.GrantAccess(ctx, opts.name, opts.ip, opts.serial, opts.username, opts.password)
			if err != nil {
				return fmt.Errorf("granting access: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored credential for %s\n", bundle)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "robot name, e.g. Vector-A1B2 (default robot.name)")
	cmd.Flags().StringVar(&opts.ip, "ip", "", "robot IP address (default robot.address)")
	cmd.Flags().StringVar(&opts.serial, "serial", "", "robot serial number, e.g. 00e20100")
	cmd.Flags().StringVar(&opts.username, "username", "", "cloud account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "cloud account password (default $"+passwordEnvVar+")")

	return cmd
}
