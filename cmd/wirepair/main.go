package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "wirepair",
		Short:        "Pair a desktop and a mobile device over the local network",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := log.New(opts.logLevel)
			cfg, path, err := config.Load(bootstrap, opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = log.New(cfg.LogLevel)
			opts.logger.Debug().Str("config", path).Msg("configuration loaded")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newLinkCmd(opts),
		newUnlinkCmd(opts),
		newWatchCmd(opts),
		newProvisionCmd(opts),
		newQRCmd(opts),
	)
	return cmd
}
