package actions

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

// Performed is one action recorded by DryRun.
type Performed struct {
	Action string                `json:"action"`
	Window platform.WindowHandle `json:"window"`
	App    string                `json:"app,omitempty"`
}

// DryRun logs and records actions instead of performing them. Replays use
// it to check recorded input without touching real windows.
type DryRun struct {
	log pslog.Logger

	mu   sync.Mutex
	done []Performed
}

// NewDryRun creates a DryRun executor.
func NewDryRun(logger pslog.Logger) *DryRun {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &DryRun{log: logger}
}

func (d *DryRun) note(action string, h platform.WindowHandle, app string) error {
	d.mu.Lock()
	d.done = append(d.done, Performed{Action: action, Window: h, App: app})
	d.mu.Unlock()
	d.log.Info("dry-run action", "action", action, "window", uint32(h), "app", app)
	return nil
}

func (d *DryRun) Minimize(w *resolver.WindowDescriptor) error {
	return d.note("minimize", w.Handle, w.OwnerAppID)
}

func (d *DryRun) Unminimize(h platform.WindowHandle) error {
	return d.note("unminimize", h, "")
}

func (d *DryRun) Close(w *resolver.WindowDescriptor) error {
	return d.note("close", w.Handle, w.OwnerAppID)
}

func (d *DryRun) ToggleFullScreen(w *resolver.WindowDescriptor) error {
	return d.note("toggle_full_screen", w.Handle, w.OwnerAppID)
}

func (d *DryRun) Restore(w *resolver.WindowDescriptor) error {
	if !w.IsFullScreen {
		return nil
	}
	return d.note("restore", w.Handle, w.OwnerAppID)
}

// Performed returns the recorded actions in order.
func (d *DryRun) Performed() []Performed {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Performed(nil), d.done...)
}
