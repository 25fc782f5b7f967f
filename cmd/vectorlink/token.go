package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vectorlink/internal/auth"
)

// defaultTokenSubject names tokens minted without --subject.
const defaultTokenSubject = "vectorlink"

type tokenOptions struct {
	subject string
	ttl     time.Duration
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a status API access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOptionalConfig(root.configPath)
			if err != nil {
				return err
			}

			ttl := opts.ttl
			if ttl <= 0 {
				ttl = time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
			}

			token, err := auth.GenerateAccessToken(opts.subject, cfg.Security.JWT.Secret, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", defaultTokenSubject, "token subject")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (default security.jwt.access_token_ttl)")

	return cmd
}
