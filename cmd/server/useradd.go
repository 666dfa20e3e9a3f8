package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/config"
	"github.com/vovakirdan/chatd/internal/store/sqlite"
)

func newUserAddCmd(opts *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "useradd <username> <password>",
		Short: "Add or replace a user in the credentials database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(config.Config{CredentialsDB: dbPath})
			if err != nil {
				return err
			}
			if cfg.CredentialsDB == "" {
				return errors.New("no credentials database: set credentials_db or pass --db")
			}

			hash, err := auth.HashPassword(args[1])
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.CredentialsDB)
			if err != nil {
				return fmt.Errorf("open credentials db: %w", err)
			}
			defer st.Close()

			if err := st.PutUser(cmd.Context(), args[0], hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s saved to %s\n", args[0], cfg.CredentialsDB)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite credentials database (defaults to credentials_db)")
	return cmd
}
