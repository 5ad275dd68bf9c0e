package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/hud"
	"github.com/1broseidon/swish/internal/resolver"
)

// Config is the top-level daemon configuration.
type Config struct {
	LogLevel           string         `mapstructure:"log_level" yaml:"log_level"`
	Device             string         `mapstructure:"device" yaml:"device"` // evdev path; empty = auto-discover
	FullScreenShortcut string         `mapstructure:"fullscreen_shortcut" yaml:"fullscreen_shortcut"`
	PauseHotkey        string         `mapstructure:"pause_hotkey" yaml:"pause_hotkey"`
	Gesture            GestureConfig  `mapstructure:"gesture" yaml:"gesture"`
	Resolver           ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	HUD                HUDConfig      `mapstructure:"hud" yaml:"hud"`
	Feedback           FeedbackConfig `mapstructure:"feedback" yaml:"feedback"`
	Daemon             DaemonConfig   `mapstructure:"daemon" yaml:"daemon"`
}

// GestureConfig holds the classification thresholds. Distances are in
// normalized trackpad units, RestoreRadius is in screen units.
type GestureConfig struct {
	PinchOpen            float64       `mapstructure:"pinch_open" yaml:"pinch_open"`
	PinchClose           float64       `mapstructure:"pinch_close" yaml:"pinch_close"`
	SwipeDown            float64       `mapstructure:"swipe_down" yaml:"swipe_down"`
	SwipeUp              float64       `mapstructure:"swipe_up" yaml:"swipe_up"`
	ScaleDeviationAction float64       `mapstructure:"scale_deviation_action" yaml:"scale_deviation_action"`
	YDeltaAction         float64       `mapstructure:"y_delta_action" yaml:"y_delta_action"`
	ScaleDeviationHint   float64       `mapstructure:"scale_deviation_hint" yaml:"scale_deviation_hint"`
	YDeltaHint           float64       `mapstructure:"y_delta_hint" yaml:"y_delta_hint"`
	MinStartDistance     float64       `mapstructure:"min_start_distance" yaml:"min_start_distance"`
	MaxStartDistance     float64       `mapstructure:"max_start_distance" yaml:"max_start_distance"`
	HoldToClose          time.Duration `mapstructure:"hold_to_close" yaml:"hold_to_close"`
	RestoreRadius        float64       `mapstructure:"restore_radius" yaml:"restore_radius"`
}

// ResolverConfig tunes window targeting.
type ResolverConfig struct {
	MinWindowSize           float64  `mapstructure:"min_window_size" yaml:"min_window_size"`
	TitleBarHeight          float64  `mapstructure:"title_bar_height" yaml:"title_bar_height"`
	TopEdgeBand             float64  `mapstructure:"top_edge_band" yaml:"top_edge_band"`
	VendorToolbarBand       float64  `mapstructure:"vendor_toolbar_band" yaml:"vendor_toolbar_band"`
	VisualTolerance         float64  `mapstructure:"visual_tolerance" yaml:"visual_tolerance"`
	VisualToleranceRatio    float64  `mapstructure:"visual_tolerance_ratio" yaml:"visual_tolerance_ratio"`
	LooseHeightRatio        float64  `mapstructure:"loose_height_ratio" yaml:"loose_height_ratio"`
	VisualFullScreenVendors []string `mapstructure:"visual_fullscreen_vendors" yaml:"visual_fullscreen_vendors"`
}

// HUDConfig controls the on-screen feedback overlay.
type HUDConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	HideDelay    time.Duration `mapstructure:"hide_delay" yaml:"hide_delay"`
	FadeDuration time.Duration `mapstructure:"fade_duration" yaml:"fade_duration"`
	FadeSteps    int           `mapstructure:"fade_steps" yaml:"fade_steps"`
}

// FeedbackConfig controls feedback delivery.
type FeedbackConfig struct {
	Throttle  time.Duration   `mapstructure:"throttle" yaml:"throttle"`
	LogEvents bool            `mapstructure:"log_events" yaml:"log_events"`
	WebSocket WebSocketConfig `mapstructure:"websocket" yaml:"websocket"`
}

// WebSocketConfig configures the feedback broadcast endpoint.
type WebSocketConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr           string `mapstructure:"addr" yaml:"addr"`
	Path           string `mapstructure:"path" yaml:"path"`
	AllowAnyOrigin bool   `mapstructure:"allow_any_origin" yaml:"allow_any_origin"`
}

// DaemonConfig controls monitoring restarts and display polling.
type DaemonConfig struct {
	RestartDebounce     time.Duration `mapstructure:"restart_debounce" yaml:"restart_debounce"`
	RestartSettle       time.Duration `mapstructure:"restart_settle" yaml:"restart_settle"`
	DisplayPollInterval time.Duration `mapstructure:"display_poll_interval" yaml:"display_poll_interval"`
	WakeThreshold       time.Duration `mapstructure:"wake_threshold" yaml:"wake_threshold"`
	QueueSize           int           `mapstructure:"queue_size" yaml:"queue_size"`
}

// ValidationError reports an invalid setting by its YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	t := gesture.DefaultThresholds()
	r := resolver.DefaultOptions()
	h := hud.DefaultOptions()
	return &Config{
		LogLevel:           "info",
		FullScreenShortcut: "F11",
		PauseHotkey:        "Mod4-Mod1-g",
		Gesture: GestureConfig{
			PinchOpen:            t.PinchOpen,
			PinchClose:           t.PinchClose,
			SwipeDown:            t.SwipeDown,
			SwipeUp:              t.SwipeUp,
			ScaleDeviationAction: t.ScaleDeviationAction,
			YDeltaAction:         t.YDeltaAction,
			ScaleDeviationHint:   t.ScaleDeviationHint,
			YDeltaHint:           t.YDeltaHint,
			MinStartDistance:     t.MinStartDistance,
			MaxStartDistance:     t.MaxStartDistance,
			HoldToClose:          t.HoldToClose,
			RestoreRadius:        t.RestoreRadius,
		},
		Resolver: ResolverConfig{
			MinWindowSize:           r.MinWindowSize,
			TitleBarHeight:          r.TitleBarHeight,
			TopEdgeBand:             r.TopEdgeBand,
			VendorToolbarBand:       r.VendorToolbarBand,
			VisualTolerance:         r.VisualTolerance,
			VisualToleranceRatio:    r.VisualToleranceRatio,
			LooseHeightRatio:        r.LooseHeightRatio,
			VisualFullScreenVendors: r.VisualFullScreenVendors,
		},
		HUD: HUDConfig{
			Enabled:      true,
			HideDelay:    h.HideDelay,
			FadeDuration: h.FadeDuration,
			FadeSteps:    h.FadeSteps,
		},
		Feedback: FeedbackConfig{
			Throttle: time.Second / 60,
			WebSocket: WebSocketConfig{
				Addr: "127.0.0.1:7345",
				Path: "/feedback",
			},
		},
		Daemon: DaemonConfig{
			RestartDebounce:     300 * time.Millisecond,
			RestartSettle:       100 * time.Millisecond,
			DisplayPollInterval: 5 * time.Second,
			WakeThreshold:       5 * time.Second,
			QueueSize:           64,
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/swish/config.yaml, falling
// back to ~/.config.
func DefaultConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "swish", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "swish", "config.yaml"), nil
}

// Thresholds converts the gesture section for the engine.
func (c *Config) Thresholds() gesture.Thresholds {
	g := c.Gesture
	return gesture.Thresholds{
		PinchOpen:            g.PinchOpen,
		PinchClose:           g.PinchClose,
		SwipeDown:            g.SwipeDown,
		SwipeUp:              g.SwipeUp,
		ScaleDeviationAction: g.ScaleDeviationAction,
		YDeltaAction:         g.YDeltaAction,
		ScaleDeviationHint:   g.ScaleDeviationHint,
		YDeltaHint:           g.YDeltaHint,
		MinStartDistance:     g.MinStartDistance,
		MaxStartDistance:     g.MaxStartDistance,
		HoldToClose:          g.HoldToClose,
		RestoreRadius:        g.RestoreRadius,
	}
}

// ResolverOptions converts the resolver section.
func (c *Config) ResolverOptions() resolver.Options {
	r := c.Resolver
	return resolver.Options{
		MinWindowSize:           r.MinWindowSize,
		TitleBarHeight:          r.TitleBarHeight,
		TopEdgeBand:             r.TopEdgeBand,
		VendorToolbarBand:       r.VendorToolbarBand,
		VisualTolerance:         r.VisualTolerance,
		VisualToleranceRatio:    r.VisualToleranceRatio,
		LooseHeightRatio:        r.LooseHeightRatio,
		VisualFullScreenVendors: append([]string(nil), r.VisualFullScreenVendors...),
	}
}

// HUDOptions converts the hud section.
func (c *Config) HUDOptions() hud.Options {
	return hud.Options{
		HideDelay:    c.HUD.HideDelay,
		FadeDuration: c.HUD.FadeDuration,
		FadeSteps:    c.HUD.FadeSteps,
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: errors.New("log_level must be one of: trace, debug, info, warn, error")}
	}
	if strings.TrimSpace(c.FullScreenShortcut) == "" {
		return &ValidationError{Path: "fullscreen_shortcut", Err: errors.New("fullscreen_shortcut is required")}
	}
	if err := c.Thresholds().Validate(); err != nil {
		return &ValidationError{Path: "gesture", Err: err}
	}

	r := c.Resolver
	if r.MinWindowSize < 0 {
		return &ValidationError{Path: "resolver.min_window_size", Err: errors.New("must be >= 0")}
	}
	if r.TitleBarHeight <= 0 {
		return &ValidationError{Path: "resolver.title_bar_height", Err: errors.New("must be > 0")}
	}
	if r.TopEdgeBand < 0 || r.VendorToolbarBand < 0 || r.VisualTolerance < 0 {
		return &ValidationError{Path: "resolver", Err: errors.New("bands and tolerances must be >= 0")}
	}
	if r.VisualToleranceRatio < 0 || r.VisualToleranceRatio >= 1 {
		return &ValidationError{Path: "resolver.visual_tolerance_ratio", Err: errors.New("must be in [0, 1)")}
	}
	if r.LooseHeightRatio <= 0 || r.LooseHeightRatio > 1 {
		return &ValidationError{Path: "resolver.loose_height_ratio", Err: errors.New("must be in (0, 1]")}
	}
	for i, v := range r.VisualFullScreenVendors {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Path: fmt.Sprintf("resolver.visual_fullscreen_vendors[%d]", i), Err: errors.New("vendor must not be empty")}
		}
	}

	if c.HUD.HideDelay < 0 || c.HUD.FadeDuration < 0 {
		return &ValidationError{Path: "hud", Err: errors.New("durations must be >= 0")}
	}
	if c.HUD.FadeSteps < 0 {
		return &ValidationError{Path: "hud.fade_steps", Err: errors.New("must be >= 0")}
	}

	if c.Feedback.Throttle < 0 {
		return &ValidationError{Path: "feedback.throttle", Err: errors.New("must be >= 0")}
	}
	if ws := c.Feedback.WebSocket; ws.Enabled {
		if strings.TrimSpace(ws.Addr) == "" {
			return &ValidationError{Path: "feedback.websocket.addr", Err: errors.New("addr is required when the websocket is enabled")}
		}
		if ws.Path != "" && !strings.HasPrefix(ws.Path, "/") {
			return &ValidationError{Path: "feedback.websocket.path", Err: errors.New("path must start with /")}
		}
	}

	d := c.Daemon
	if d.RestartDebounce < 0 || d.RestartSettle < 0 {
		return &ValidationError{Path: "daemon", Err: errors.New("restart delays must be >= 0")}
	}
	if d.DisplayPollInterval < 0 || d.WakeThreshold < 0 {
		return &ValidationError{Path: "daemon", Err: errors.New("poll interval and wake threshold must be >= 0")}
	}
	if d.QueueSize < 0 {
		return &ValidationError{Path: "daemon.queue_size", Err: errors.New("must be >= 0")}
	}
	return nil
}
