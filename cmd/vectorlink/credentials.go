package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vectorlink/internal/credential"
)

func newCredentialsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored robot credentials",
	}

	cmd.AddCommand(
		newCredentialsListCmd(root),
		newCredentialsDeleteCmd(root),
	)

	return cmd
}

func newCredentialsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored robot credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, root, func(store credential.Store) error {
				bundles, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing credentials: %w", err)
				}

				for _, b := range bundles {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
						b.DeviceID, b.Address, b.UpdatedAt.Format(time.RFC3339))
				}

				return nil
			})
		},
	}
}

func newCredentialsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device-id>",
		Short: "Forget the stored credential for a robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := args[0]
			return withStore(cmd, root, func(store credential.Store) error {
				if _, err := store.Get(cmd.Context(), deviceID); err != nil {
					return fmt.Errorf("looking up %s: %w", deviceID, err)
				}
				if err := store.Delete(cmd.Context(), deviceID); err != nil {
					return fmt.Errorf("deleting %s: %w", deviceID, err)
				}

				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted credential for %s\n", deviceID)
				return err
			})
		},
	}
}

// withStore opens the credential database for the duration of fn.
func withStore(cmd *cobra.Command, root *rootOptions, fn func(credential.Store) error) error {
	cfg, err := loadOptionalConfig(root.configPath)
	if err != nil {
		return err
	}

	db, store, err := openStore(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Short-lived handle

	return fn(store)
}
