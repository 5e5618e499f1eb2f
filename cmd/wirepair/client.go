package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/log"
	"github.com/vovakirdan/wirepair/internal/proto"
)

func addCoordinatorFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "coordinator", "c", "", "coordinator address, e.g. 192.168.1.5:4141")
	_ = cmd.MarkFlagRequired("coordinator")
}

func newCoordClient(opts *rootOptions, addr string) (*coordclient.Client, error) {
	return coordclient.New(addr, coordclient.WithLogger(log.Component(opts.logger, "coordclient")))
}

func retryPolicy(opts *rootOptions) coordclient.RetryPolicy {
	return coordclient.RetryPolicy{
		MaxAttempts: opts.cfg.Retry.MaxAttempts,
		Backoff:     opts.cfg.Retry.Backoff,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLinkCmd(opts *rootOptions) *cobra.Command {
	var (
		coordinator string
		req         proto.LinkRequest
		token       string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a media room on the coordinator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newCoordClient(opts, coordinator)
			if err != nil {
				return err
			}
			if token != "" {
				req.Token = &token
			}
			resp, err := client.LinkSession(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("link session: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}

	addCoordinatorFlag(cmd, &coordinator)
	cmd.Flags().StringVar(&req.RoomURL, "room-url", "", "media room URL")
	cmd.Flags().StringVar(&req.RoomName, "room-name", "", "display name (defaults to the last path segment of the URL)")
	cmd.Flags().StringVar(&token, "token", "", "room join token")
	_ = cmd.MarkFlagRequired("room-url")
	return cmd
}

func newUnlinkCmd(opts *rootOptions) *cobra.Command {
	var coordinator string

	cmd := &cobra.Command{
		Use:   "unlink",
		Short: "Clear the linked session on the coordinator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newCoordClient(opts, coordinator)
			if err != nil {
				return err
			}
			if err := client.UnlinkSession(cmd.Context()); err != nil {
				return fmt.Errorf("unlink session: %w", err)
			}
			return printJSON(cmd, proto.OKResponse{OK: true})
		},
	}

	addCoordinatorFlag(cmd, &coordinator)
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var coordinator string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print coordinator state, then stream its events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := newCoordClient(opts, coordinator)
			if err != nil {
				return err
			}

			state, err := client.State(ctx)
			if err != nil {
				return fmt.Errorf("fetch state: %w", err)
			}
			if err := printJSON(cmd, state); err != nil {
				return err
			}

			ch, err := client.OpenChannel(ctx, coordclient.ChannelOptions{Retry: retryPolicy(opts)})
			if err != nil {
				return fmt.Errorf("open event channel: %w", err)
			}
			defer ch.Close()

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-ch.Events():
					if !ok {
						return nil
					}
					if ev.Kind == coordclient.EventDisconnected {
						return ev.Err
					}
					logEvent(opts, ev)
				}
			}
		},
	}

	addCoordinatorFlag(cmd, &coordinator)
	return cmd
}

func logEvent(opts *rootOptions, ev coordclient.Event) {
	entry := opts.logger.Info().Stringer("event", ev.Kind)
	switch {
	case ev.Status != nil:
		entry = entry.Str("client_id", ev.Status.ClientID).Int("port", ev.Status.Port)
	case ev.Session != nil:
		entry = entry.Bool("active", ev.Session.Active).Str("room_name", ev.Session.RoomName).Str("room_url", ev.Session.RoomURL)
	case ev.Desktop != nil:
		entry = entry.Interface("participant_id", ev.Desktop.ParticipantID)
	case ev.Mobile != nil:
		entry = entry.Interface("participant_id", ev.Mobile.ParticipantID).
			Bool("camera_enabled", ev.Mobile.CameraEnabled).
			Str("camera_position", ev.Mobile.CameraPosition)
	case ev.Message != "":
		entry = entry.Str("message", ev.Message)
	case ev.Err != nil:
		entry = entry.Err(ev.Err)
	}
	entry.Msg("coordinator event")
}
