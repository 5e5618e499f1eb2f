package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepair/internal/mediaroom/livekit"
	"github.com/vovakirdan/wirepair/internal/proto"
)

func newProvisionCmd(opts *rootOptions) *cobra.Command {
	var coordinator string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a LiveKit room and optionally link it on a coordinator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lk := opts.cfg.LiveKit
			if !lk.Enabled() {
				return fmt.Errorf("%w: set livekit.url, livekit.api_key and livekit.api_secret", livekit.ErrNotConfigured)
			}
			room, err := livekit.New(lk.APIKey, lk.APISecret, lk.URL, lk.TokenTTL).CreateRoom(cmd.Context())
			if err != nil {
				return fmt.Errorf("provision room: %w", err)
			}
			req := proto.LinkRequest{RoomName: room.Name, RoomURL: room.URL, Token: room.Token}
			opts.logger.Info().Str("room_name", room.Name).Msg("room provisioned")

			if coordinator == "" {
				return printJSON(cmd, req)
			}
			client, err := newCoordClient(opts, coordinator)
			if err != nil {
				return err
			}
			if _, err := client.LinkSession(cmd.Context(), req); err != nil {
				return fmt.Errorf("link session: %w", err)
			}
			return printJSON(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&coordinator, "coordinator", "c", "", "also link the room on this coordinator")
	return cmd
}
