package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatd/internal/app"
	"github.com/vovakirdan/chatd/internal/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var flags config.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := opts.loadConfig(flags)
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			logger.Info().Str("config", path).Msg("config loaded")

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("startup failed")
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Str("addr", application.Addr().String()).Msg("starting chat server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "chat TCP listen address")
	cmd.Flags().StringVar(&flags.HTTPAddr, "http-addr", "", "admin/WebSocket HTTP listen address")
	cmd.Flags().StringVar(&flags.CredentialsPath, "credentials", "", "path to the username:password file")
	return cmd
}
