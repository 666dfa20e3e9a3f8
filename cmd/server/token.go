package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/config"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.loadConfig(config.Config{})
			if err != nil {
				return err
			}
			if cfg.AdminJWTSecret == "" {
				return errors.New("admin_jwt_secret is not configured")
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret: []byte(cfg.AdminJWTSecret),
				Issuer: cfg.AdminJWTIssuer,
				TTL:    cfg.AdminJWTTTL,
			}, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	return cmd
}
