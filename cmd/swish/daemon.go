package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	godaemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/actions"
	"github.com/1broseidon/swish/internal/config"
	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/feedback"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/hotkeys"
	"github.com/1broseidon/swish/internal/hud"
	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/logx"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
	"github.com/1broseidon/swish/internal/runtimepath"
	"github.com/1broseidon/swish/internal/touch"
)

type daemonOptions struct {
	device string
	record string
	detach bool
}

func newDaemonCmd(root *rootOptions) *cobra.Command {
	opts := &daemonOptions{}
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the gesture daemon",
		Long: `Run the gesture daemon in the foreground, or in the background with --detach.

The daemon reads the touchpad, resolves the window under the pointer and
performs window actions. Other swish commands talk to it over a unix socket
in the runtime directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.detach {
				return runDaemon(cmd.Context(), root, opts)
			}
			dctx, err := daemonContext()
			if err != nil {
				return err
			}
			child, err := dctx.Reborn()
			if err != nil {
				return fmt.Errorf("failed to daemonize: %w", err)
			}
			if child != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "swish daemon started (pid %d, log %s)\n", child.Pid, dctx.LogFileName)
				return nil
			}
			defer func() { _ = dctx.Release() }()
			return runDaemon(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.device, "device", "", "evdev touchpad path (default: configured or auto-discovered)")
	cmd.Flags().StringVar(&opts.record, "record", "", "append received touch frames to FILE as JSON lines")
	cmd.Flags().BoolVarP(&opts.detach, "detach", "d", false, "run in the background")
	return cmd
}

// daemonContext describes the detached process: pid and log files live in
// the runtime directory next to the control socket.
func daemonContext() (*godaemon.Context, error) {
	pidFile, err := runtimepath.PIDFilePath()
	if err != nil {
		return nil, err
	}
	logFile, err := runtimepath.LogFilePath()
	if err != nil {
		return nil, err
	}
	return &godaemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0o644,
		LogFileName: logFile,
		LogFilePerm: 0o640,
		WorkDir:     "/",
		Umask:       0o27,
		Args:        os.Args,
	}, nil
}

// recordingSource tees frames into a recorder before they reach the
// monitor.
type recordingSource struct {
	touch.Source
	rec *touch.Recorder
}

func (s recordingSource) Start(ctx context.Context, h touch.FrameHandler) error {
	return s.Source.Start(ctx, s.rec.Wrap(h))
}

func loadedFile(res *config.LoadResult) string {
	if res.Loaded {
		return res.File
	}
	return ""
}

func runDaemon(parent context.Context, root *rootOptions, opts *daemonOptions) error {
	res, err := root.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	if opts.device != "" {
		cfg.Device = opts.device
	}

	logger := root.logger(cfg)
	logx.RedirectStdLog(logger)
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(pslog.ContextWithLogger(parent, logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("configuration loaded", "file", res.File, "loaded", res.Loaded, "device", cfg.Device)

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return err
	}
	backend.SetFullScreenShortcut(cfg.FullScreenShortcut)

	targets := resolver.New(backend, backend, backend, os.Getpid(), cfg.ResolverOptions(), logx.WithComponent(logger, "resolver"))
	executor := actions.New(backend, cfg.Resolver.VisualFullScreenVendors, logx.WithComponent(logger, "actions"))

	latest := &feedback.Latest{}
	sinks := feedback.Fanout{latest}
	if cfg.HUD.Enabled {
		hudLog := logx.WithComponent(logger, "hud")
		renderer := hud.NewX11Renderer(backend.Conn(), backend, hudLog)
		defer func() { _ = renderer.Close() }()
		overlay := hud.NewController(renderer, cfg.HUDOptions(), hudLog)
		defer overlay.Stop()
		sinks = append(sinks, overlay)
	}
	var hub *feedback.WebSocketHub
	if ws := cfg.Feedback.WebSocket; ws.Enabled {
		hub = feedback.NewWebSocketHub(ws.AllowAnyOrigin, logx.WithComponent(logger, "feedback"))
		sinks = append(sinks, hub)
		go func() {
			if err := hub.ListenAndServe(ctx, ws.Addr, ws.Path); err != nil {
				logger.Error("feedback websocket stopped", "addr", ws.Addr, "err", err)
			}
		}()
	}
	if cfg.Feedback.LogEvents {
		sinks = append(sinks, feedback.NewLogSink(logx.WithComponent(logger, "feedback")))
	}
	sink := feedback.NewThrottle(sinks, cfg.Feedback.Throttle)
	defer sink.Close()

	engine := gesture.NewEngine(targets, executor, backend, sink, gesture.Options{Thresholds: cfg.Thresholds()}, logx.WithComponent(logger, "gesture"))

	var recorder *touch.Recorder
	if opts.record != "" {
		f, err := os.OpenFile(opts.record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer f.Close()
		recorder = touch.NewRecorder(f)
		logger.Info("recording touch frames", "file", opts.record)
	}

	touchLog := logx.WithComponent(logger, "touch")
	monitor := daemon.NewMonitor(daemon.MonitorConfig{
		RestartDebounce: cfg.Daemon.RestartDebounce,
		RestartSettle:   cfg.Daemon.RestartSettle,
		QueueSize:       cfg.Daemon.QueueSize,
		Logger:          logx.WithComponent(logger, "monitor"),
		OnDriverUnavailable: func(err error) {
			logger.Warn("touchpad unavailable, gestures disabled until monitoring restarts", "err", err)
		},
	}, func() touch.Source {
		var src touch.Source = touch.NewEvdevSource(cfg.Device, touchLog)
		if recorder != nil {
			src = recordingSource{Source: src, rec: recorder}
		}
		return src
	}, engine)

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- monitor.Run(ctx) }()

	watcher := daemon.NewDisplayWatcher(daemon.WatcherConfig{
		Interval:      cfg.Daemon.DisplayPollInterval,
		WakeThreshold: cfg.Daemon.WakeThreshold,
		Logger:        logx.WithComponent(logger, "displays"),
	}, backend.Displays, monitor.RequestRestart)
	if err := backend.Conn().WatchScreenChanges(watcher.Notify); err != nil {
		logger.Warn("display change events unavailable, polling only", "err", err)
	}
	go watcher.Run(ctx)

	keys := hotkeys.NewHandler(backend.XUtil(), backend.RootWindow(), logx.WithComponent(logger, "hotkeys"))
	if err := keys.RegisterPause(cfg.PauseHotkey, monitor); err != nil {
		logger.Warn("pause hotkey not registered", "err", err)
	}

	svc := &service{
		configFile: loadedFile(res),
		monitor:    monitor,
		engine:     engine,
		resolver:   targets,
		displays:   backend,
		latest:     latest,
	}
	if hub != nil {
		svc.clients = hub.Clients
	}
	server, err := ipc.NewServer("", svc, logx.WithComponent(logger, "ipc"))
	if err != nil {
		stop()
		<-monitorDone
		return fmt.Errorf("failed to create IPC server: %w", err)
	}
	if err := server.Start(); err != nil {
		stop()
		<-monitorDone
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer server.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, restarting monitoring")
				monitor.RequestRestart(daemon.ReasonUser)
			}
		}
	}()

	go backend.EventLoop()
	logger.Info("swish daemon started", "pid", os.Getpid(), "socket", server.SocketPath())

	<-ctx.Done()
	logger.Info("shutting down swish daemon")
	backend.QuitEventLoop()
	err = <-monitorDone
	if recorder != nil {
		if rerr := recorder.Err(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("record frames: %w", rerr))
		}
	}
	return err
}
