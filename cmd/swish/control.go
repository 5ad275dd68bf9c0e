package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/platform"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := ipc.NewClient().GetStatus()
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), st)
			}
			writeStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func writeStatus(w io.Writer, st *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:  %v\n", st.DaemonRunning)
	fmt.Fprintf(w, "pid:             %d\n", st.PID)
	fmt.Fprintf(w, "uptime:          %s\n", time.Duration(st.UptimeSeconds)*time.Second)
	if st.ConfigFile != "" {
		fmt.Fprintf(w, "config_file:     %s\n", st.ConfigFile)
	}
	fmt.Fprintf(w, "monitoring:      %v\n", st.Monitor.Running)
	fmt.Fprintf(w, "paused:          %v\n", st.Monitor.Paused)
	if st.Monitor.Source != "" {
		fmt.Fprintf(w, "source:          %s\n", st.Monitor.Source)
	}
	if st.Monitor.DriverError != "" {
		fmt.Fprintf(w, "driver_error:    %s\n", st.Monitor.DriverError)
	}
	fmt.Fprintf(w, "restarts:        %d", st.Monitor.Restarts)
	if st.Monitor.LastRestartReason != "" {
		fmt.Fprintf(w, " (last: %s)", st.Monitor.LastRestartReason)
	}
	fmt.Fprintln(w)
	if st.Gesture.Active {
		fmt.Fprintf(w, "gesture:         active %s (%s)\n", st.Gesture.SessionID, st.Gesture.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintln(w, "gesture:         idle")
	}
	if rec := st.Gesture.LastMinimize; rec != nil {
		fmt.Fprintf(w, "last_minimized:  0x%x at (%.0f, %.0f)\n", uint32(rec.Handle), rec.Location.X, rec.Location.Y)
	}
	fmt.Fprintf(w, "feedback_clients: %d\n", st.FeedbackClients)
}

func newMonitorsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "displays",
		Aliases: []string{"monitors"},
		Short:   "List displays known to the daemon",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := ipc.NewClient().GetMonitors()
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), data)
			}
			w := cmd.OutOrStdout()
			for _, m := range data.Monitors {
				primary := ""
				if m.Primary {
					primary = " primary"
				}
				fmt.Fprintf(w, "%d %s%s frame=%s usable=%s\n", m.ID, m.Name, primary, formatRect(m.Frame), formatRect(m.Usable))
			}
			return nil
		},
	}
}

func formatRect(r platform.Rect) string {
	return fmt.Sprintf("%.0fx%.0f+%.0f+%.0f", r.Width, r.Height, r.X, r.Y)
}

func newRestartCmd(root *rootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart trackpad monitoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ipc.NewClient().RestartMonitoring(reason); err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"reason": reason})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restart requested (%s)\n", reason)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", daemon.ReasonUser, "reason recorded with the restart")
	return cmd
}

func newPauseCmd(root *rootOptions, pause bool) *cobra.Command {
	use, short := "resume", "Resume gesture handling"
	if pause {
		use, short = "pause", "Pause gesture handling"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := ipc.NewClient()
			call := client.Resume
			if pause {
				call = client.Pause
			}
			paused, err := call()
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), ipc.PausedData{Paused: paused})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "paused: %v\n", paused)
			return nil
		},
	}
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve X Y",
		Short: "Show the window the daemon would target at a screen point",
		Long: `Show the window the daemon would target at a screen point.

Coordinates use the pointer convention: Y grows upward from the bottom of
the primary display.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			data, err := ipc.NewClient().ResolvePoint(p.X, p.Y)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), data)
			}
			w := cmd.OutOrStdout()
			if data.Window == nil {
				fmt.Fprintln(w, "no window")
				return nil
			}
			win := data.Window
			fmt.Fprintf(w, "window:       0x%x\n", uint32(win.Handle))
			fmt.Fprintf(w, "pid:          %d\n", win.PID)
			if win.OwnerAppID != "" {
				fmt.Fprintf(w, "app:          %s\n", win.OwnerAppID)
			}
			fmt.Fprintf(w, "frame:        %s\n", formatRect(win.Frame))
			fmt.Fprintf(w, "full_screen:  %v\n", win.IsFullScreen)
			fmt.Fprintf(w, "match:        %s\n", win.Match)
			fmt.Fprintf(w, "on_title_bar: %v\n", data.OnTitleBar)
			return nil
		},
	}
}

func parsePoint(xs, ys string) (platform.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return platform.Point{}, fmt.Errorf("invalid x coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return platform.Point{}, fmt.Errorf("invalid y coordinate %q", ys)
	}
	return platform.Point{X: x, Y: y}, nil
}

func newFeedbackCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "Show the most recent gesture feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := ipc.NewClient().LastFeedback()
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), data)
			}
			w := cmd.OutOrStdout()
			ev := data.Event
			if ev == nil {
				fmt.Fprintln(w, "no feedback yet")
				return nil
			}
			fmt.Fprintf(w, "session:   %s\n", ev.SessionID)
			fmt.Fprintf(w, "phase:     %s\n", ev.Phase)
			fmt.Fprintf(w, "candidate: %s\n", ev.Candidate)
			if action := ev.Candidate.Action(); action != "" {
				fmt.Fprintf(w, "action:    %s\n", action)
			}
			fmt.Fprintf(w, "progress:  %.0f%%\n", ev.Progress*100)
			fmt.Fprintf(w, "duration:  %s\n", ev.Duration.Round(time.Millisecond))
			fmt.Fprintf(w, "in_region: %v\n", ev.InValidRegion)
			return nil
		},
	}
}
