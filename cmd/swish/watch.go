package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch gestures and daemon state live",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client := ipc.NewClient()
			if err := client.Ping(); err != nil {
				return err
			}
			return tui.Run(client, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultInterval, "poll interval")
	return cmd
}
