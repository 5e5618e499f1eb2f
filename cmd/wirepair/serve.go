package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepair/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pairing coordinator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			opts.logger.Info().Str("addr", cfg.Addr).Msg("starting wirepair coordinator")
			if err := app.New(&cfg, opts.logger).Run(cmd.Context()); err != nil {
				opts.logger.Error().Err(err).Msg("coordinator exited with error")
				return err
			}
			opts.logger.Info().Msg("coordinator stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":0\" picks a free port)")
	return cmd
}
