package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatd/internal/config"
	"github.com/vovakirdan/chatd/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCmd(opts)

	cmd := &cobra.Command{
		Use:          "chatd",
		Short:        "Multi-user line-based chat server",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	// serve is the default command, so its flags work on the root too.
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve, newHashCmd(), newTokenCmd(opts), newUserAddCmd(opts))
	return cmd
}

// loadConfig resolves config from file and env, then applies overrides.
func (o *rootOptions) loadConfig(overrides config.Config) (config.Config, string, error) {
	cfg, path, err := config.Load(nil, o.configPath)
	if err != nil {
		return cfg, path, err
	}
	overrides.LogLevel = o.logLevel
	cfg.UpdateFrom(overrides)
	return cfg, path, nil
}

func newLogger(cfg config.Config) (*zerolog.Logger, io.Closer, error) {
	logger, closer, err := log.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, closer, nil
}
