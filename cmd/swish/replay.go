package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/actions"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/logx"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
	"github.com/1broseidon/swish/internal/touch"
)

type replayOptions struct {
	speed   float64
	live    bool
	execute bool
	events  bool
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay recorded touch frames through the gesture engine",
		Long: `Replay frames recorded with "swish daemon --record FILE".

By default every point counts as the title bar of a synthetic window and
actions are only reported. With --live the frames are resolved against the
windows on the current X display; --execute additionally performs the
actions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.execute && !opts.live {
				return fmt.Errorf("--execute requires --live")
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), root, opts, args[0])
		},
	}
	cmd.Flags().Float64Var(&opts.speed, "speed", 0, "playback speed relative to the recording; 0 replays without delays")
	cmd.Flags().BoolVar(&opts.live, "live", false, "resolve windows on the current X display")
	cmd.Flags().BoolVar(&opts.execute, "execute", false, "perform actions instead of reporting them")
	cmd.Flags().BoolVar(&opts.events, "events", false, "print every feedback event")
	return cmd
}

// frameClock reports the timestamp of the frame being replayed so hold
// durations follow the recording rather than the playback speed.
type frameClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *frameClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *frameClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return time.Now()
	}
	return c.now
}

// syntheticScene places the pointer on the title bar of one full-display
// window.
type syntheticScene struct {
	window resolver.WindowDescriptor
}

func newSyntheticScene() *syntheticScene {
	frame := platform.Rect{Width: 1920, Height: 1080}
	return &syntheticScene{window: resolver.WindowDescriptor{
		Handle:     1,
		ServerID:   1,
		PID:        1,
		Frame:      frame,
		Bounds:     frame,
		OwnerAppID: "replay",
		Match:      resolver.MatchExactID,
	}}
}

func (s *syntheticScene) Probe(platform.Point) resolver.Probe {
	w := s.window
	return resolver.Probe{Window: &w, OnTitleBar: true}
}

func (s *syntheticScene) CursorLocation() (platform.Point, error) {
	return platform.Point{X: s.window.Frame.Width / 2, Y: s.window.Frame.Height - 10}, nil
}

type replayReport struct {
	Frames  int                 `json:"frames"`
	Events  int                 `json:"events"`
	Actions []actions.Performed `json:"actions,omitempty"`
}

func runReplay(parent context.Context, w io.Writer, root *rootOptions, opts *replayOptions, path string) error {
	res, err := root.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	logger := root.logger(cfg)
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		targets gesture.Resolver
		pointer gesture.Pointer
		exec    gesture.Executor
	)
	dry := actions.NewDryRun(logx.WithComponent(logger, "actions"))
	exec = dry
	if opts.live {
		backend, err := platform.NewLinuxBackendFromDisplay()
		if err != nil {
			return err
		}
		defer backend.Disconnect()
		backend.SetFullScreenShortcut(cfg.FullScreenShortcut)
		targets = resolver.New(backend, backend, backend, os.Getpid(), cfg.ResolverOptions(), logx.WithComponent(logger, "resolver"))
		pointer = backend
		if opts.execute {
			exec = actions.New(backend, cfg.Resolver.VisualFullScreenVendors, logx.WithComponent(logger, "actions"))
		}
	} else {
		scene := newSyntheticScene()
		targets, pointer = scene, scene
	}

	var (
		mu     sync.Mutex
		report replayReport
	)
	sink := gesture.SinkFunc(func(ev gesture.FeedbackEvent) {
		mu.Lock()
		report.Events++
		mu.Unlock()
		if opts.events {
			fmt.Fprintf(w, "%s %-9s %-20s %5.1f%%\n", ev.Timestamp.Format("15:04:05.000"), ev.Phase, ev.Candidate, ev.Progress*100)
		}
	})

	clock := &frameClock{}
	engine := gesture.NewEngine(targets, exec, pointer, sink, gesture.Options{
		Thresholds: cfg.Thresholds(),
		Now:        clock.Now,
	}, logx.WithComponent(logger, "gesture"))

	src := touch.NewReplayFile(path)
	src.Speed = opts.speed
	if err := src.Start(ctx, func(f touch.Frame) {
		mu.Lock()
		report.Frames++
		mu.Unlock()
		clock.set(f.Timestamp)
		engine.HandleFrame(f)
	}); err != nil {
		return err
	}
	err = src.Wait()
	engine.Cancel()
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if !opts.execute {
		report.Actions = dry.Performed()
	}
	if root.jsonOutput {
		return printJSON(w, report)
	}
	fmt.Fprintf(w, "frames: %d\nfeedback events: %d\n", report.Frames, report.Events)
	if opts.execute {
		return nil
	}
	if len(report.Actions) == 0 {
		fmt.Fprintln(w, "actions: none")
		return nil
	}
	fmt.Fprintln(w, "actions:")
	for _, a := range report.Actions {
		fmt.Fprintf(w, "  %s window=0x%x", a.Action, uint32(a.Window))
		if a.App != "" {
			fmt.Fprintf(w, " app=%s", a.App)
		}
		fmt.Fprintln(w)
	}
	return nil
}
