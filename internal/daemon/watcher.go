package daemon

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
)

// DisplayLister returns the current displays.
type DisplayLister func() ([]platform.Display, error)

// WatcherConfig holds configuration for the display watcher.
type WatcherConfig struct {
	Interval time.Duration
	// WakeThreshold is how far the wall clock may run ahead of the
	// monotonic clock between polls before a wake is assumed.
	WakeThreshold time.Duration
	Logger        pslog.Logger
}

// DisplayWatcher polls the display layout and reports changes and
// wake-ups. Screen-change events can also be pushed with Notify.
type DisplayWatcher struct {
	interval      time.Duration
	wakeThreshold time.Duration
	list          DisplayLister
	onChange      func(reason string)
	logger        pslog.Logger

	last string
}

// NewDisplayWatcher creates a watcher that calls onChange with a restart
// reason.
func NewDisplayWatcher(cfg WatcherConfig, list DisplayLister, onChange func(reason string)) *DisplayWatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.WakeThreshold <= 0 {
		cfg.WakeThreshold = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = pslog.Ctx(context.Background())
	}
	return &DisplayWatcher{
		interval:      cfg.Interval,
		wakeThreshold: cfg.WakeThreshold,
		list:          list,
		onChange:      onChange,
		logger:        cfg.Logger,
	}
}

// Run polls until ctx is cancelled.
func (w *DisplayWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.last, _ = w.snapshot()
	w.logger.Info("display watcher started", "interval", w.interval)

	prev := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("display watcher stopped")
			return
		case <-ticker.C:
			now := time.Now()
			if slept(prev, now, w.wakeThreshold) {
				w.logger.Info("wake from sleep detected")
				w.onChange(ReasonWake)
			}
			prev = now
			w.check()
		}
	}
}

// Notify reports an external screen-change event.
func (w *DisplayWatcher) Notify() {
	w.logger.Debug("screen change event")
	w.onChange(ReasonDisplayChange)
}

func (w *DisplayWatcher) check() {
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("display watcher panic recovered", "err", err)
		}
	}()

	sig, err := w.snapshot()
	if err != nil {
		w.logger.Debug("display watcher: list failed", "err", err)
		return
	}
	if sig == w.last {
		return
	}
	w.logger.Info("display configuration changed", "layout", sig)
	w.last = sig
	w.onChange(ReasonDisplayChange)
}

func (w *DisplayWatcher) snapshot() (string, error) {
	displays, err := w.list()
	if err != nil {
		return "", err
	}
	return displaySignature(displays), nil
}

// displaySignature is an order-independent summary of the layout.
func displaySignature(displays []platform.Display) string {
	parts := make([]string, 0, len(displays))
	for _, d := range displays {
		parts = append(parts, fmt.Sprintf("%s@%g,%g:%gx%g/%g,%g:%gx%g",
			d.Name, d.Frame.X, d.Frame.Y, d.Frame.Width, d.Frame.Height,
			d.Usable.X, d.Usable.Y, d.Usable.Width, d.Usable.Height))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// slept reports whether the wall clock advanced more than threshold beyond
// the monotonic clock between prev and now.
func slept(prev, now time.Time, threshold time.Duration) bool {
	mono := now.Sub(prev)
	wall := now.Round(0).Sub(prev.Round(0))
	return wall-mono > threshold
}
