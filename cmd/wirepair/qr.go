package main

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newQRCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "qr <url>",
		Short: "Write a pairing QR code PNG for a coordinator URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := qrcode.WriteFile(args[0], qrcode.Medium, opts.cfg.QRSize, output); err != nil {
				return fmt.Errorf("write qr code: %w", err)
			}
			opts.logger.Info().Str("url", args[0]).Str("file", output).Msg("qr code written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "pairing.png", "PNG file to write")
	return cmd
}
