// Package actions performs window operations for committed gestures.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

// Executor drives windows through the automation layer. Failures are
// returned to the caller and never retried.
type Executor struct {
	auto    platform.Automation
	vendors map[string]struct{}
	log     pslog.Logger
}

// New creates an executor. Windows whose app id is in shortcutVendors are
// toggled with the keyboard shortcut instead of the native attribute.
func New(auto platform.Automation, shortcutVendors []string, logger pslog.Logger) *Executor {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	vendors := make(map[string]struct{}, len(shortcutVendors))
	for _, v := range shortcutVendors {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			vendors[v] = struct{}{}
		}
	}
	return &Executor{auto: auto, vendors: vendors, log: logger}
}

// Minimize iconifies the window.
func (e *Executor) Minimize(w *resolver.WindowDescriptor) error {
	if w == nil {
		return platform.ErrNoTarget
	}
	if err := e.auto.SetMinimized(w.Handle, true); err != nil {
		return fmt.Errorf("minimize window %d: %w", w.Handle, err)
	}
	return nil
}

// Unminimize restores a previously minimized window.
func (e *Executor) Unminimize(h platform.WindowHandle) error {
	if h == 0 {
		return platform.ErrNoTarget
	}
	if err := e.auto.SetMinimized(h, false); err != nil {
		return fmt.Errorf("unminimize window %d: %w", h, err)
	}
	return nil
}

// Close presses the window's close control when it exposes one.
func (e *Executor) Close(w *resolver.WindowDescriptor) error {
	if w == nil {
		return platform.ErrNoTarget
	}
	if !e.auto.HasCloseControl(w.Handle) {
		return fmt.Errorf("close window %d: no close control: %w", w.Handle, platform.ErrAttributeUnavailable)
	}
	if err := e.auto.PressClose(w.Handle); err != nil {
		return fmt.Errorf("close window %d: %w", w.Handle, err)
	}
	return nil
}

// ToggleFullScreen flips full-screen mode. Shortcut vendors always use the
// keyboard shortcut; other windows try the native attribute, then the
// full-screen control, then the shortcut.
func (e *Executor) ToggleFullScreen(w *resolver.WindowDescriptor) error {
	if w == nil {
		return platform.ErrNoTarget
	}
	h := w.Handle
	if e.isVendor(w.OwnerAppID) {
		e.log.Debug("actions full-screen via shortcut", "window", uint32(h), "app", w.OwnerAppID)
		if err := e.auto.SendFullScreenShortcut(h); err != nil {
			return fmt.Errorf("toggle full screen %d: %w", h, err)
		}
		return nil
	}

	var errs []error
	on, err := e.auto.FullScreen(h)
	if err == nil {
		if err = e.auto.SetFullScreen(h, !on); err == nil {
			return nil
		}
	}
	if errors.Is(err, platform.ErrStaleHandle) {
		return fmt.Errorf("toggle full screen %d: %w", h, err)
	}
	errs = append(errs, err)

	if e.auto.HasFullScreenControl(h) {
		err := e.auto.PressFullScreen(h)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}

	e.log.Debug("actions full-screen falling back to shortcut", "window", uint32(h), "err", errors.Join(errs...))
	if err := e.auto.SendFullScreenShortcut(h); err != nil {
		errs = append(errs, err)
		return fmt.Errorf("toggle full screen %d: %w", h, errors.Join(errs...))
	}
	return nil
}

// Restore leaves full screen. It does nothing when the window is not
// reported full screen.
func (e *Executor) Restore(w *resolver.WindowDescriptor) error {
	if w == nil {
		return platform.ErrNoTarget
	}
	if !w.IsFullScreen {
		e.log.Debug("actions restore skipped, window not full screen", "window", uint32(w.Handle))
		return nil
	}
	return e.ToggleFullScreen(w)
}

func (e *Executor) isVendor(appID string) bool {
	if appID == "" {
		return false
	}
	_, ok := e.vendors[strings.ToLower(appID)]
	return ok
}
