package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/config"
	"github.com/1broseidon/swish/internal/logx"
)

const version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "swish",
		Short: "Trackpad title-bar gestures for X11 windows",
		Long: `swish watches two-finger touchpad gestures performed over a window's
title bar and turns them into window actions: pinch to toggle full screen,
swipe down to minimize, swipe up to restore, hold a swipe up to close.`,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/swish/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print command results as JSON")

	cmd.AddCommand(
		newDaemonCmd(opts),
		newStatusCmd(opts),
		newMonitorsCmd(opts),
		newRestartCmd(opts),
		newPauseCmd(opts, true),
		newPauseCmd(opts, false),
		newResolveCmd(opts),
		newFeedbackCmd(opts),
		newDevicesCmd(opts),
		newReplayCmd(opts),
		newConfigCmd(opts),
		newWatchCmd(),
		newMCPCmd(opts),
	)
	return cmd
}

// loadConfig loads the configuration and applies command-line overrides.
func (o *rootOptions) loadConfig() (*config.LoadResult, error) {
	res, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		res.Config.LogLevel = o.logLevel
	}
	return res, nil
}

func (o *rootOptions) logger(cfg *config.Config) pslog.Logger {
	level := o.logLevel
	if cfg != nil && level == "" {
		level = cfg.LogLevel
	}
	return logx.New(os.Stderr, level)
}

func printJSON(w io.Writer, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
