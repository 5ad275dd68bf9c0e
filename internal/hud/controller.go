// Package hud shows a small on-screen overlay that tracks an in-progress
// gesture: a highlight around the target window and a panel naming the
// candidate action with its progress.
package hud

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
)

// View is what a renderer draws for one feedback event.
type View struct {
	Candidate gesture.Candidate
	Title     string
	Action    string
	Progress  float64
	// Window is the target frame in compositor space, if known.
	Window *platform.Rect
	// Cursor is in bottom-left-origin screen space.
	Cursor platform.Point
}

// Renderer draws views. Calls are serialized by the Controller.
type Renderer interface {
	Show(v View) error
	SetOpacity(alpha float64) error
	Hide() error
	Close() error
}

// Options times the hide animation.
type Options struct {
	HideDelay    time.Duration
	FadeDuration time.Duration
	FadeSteps    int
}

// DefaultOptions returns a 0.2 s hide delay followed by a 0.12 s fade.
func DefaultOptions() Options {
	return Options{
		HideDelay:    200 * time.Millisecond,
		FadeDuration: 120 * time.Millisecond,
		FadeSteps:    6,
	}
}

// Controller turns feedback events into renderer calls. Every show bumps a
// generation counter; a scheduled fade only runs while its generation is
// still current.
type Controller struct {
	r    Renderer
	opts Options
	log  pslog.Logger

	mu      sync.Mutex
	gen     uint64
	visible bool
	stopped bool
	timer   *time.Timer
}

// NewController creates a controller drawing with r.
func NewController(r Renderer, opts Options, logger pslog.Logger) *Controller {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if opts.FadeSteps <= 0 {
		opts.FadeSteps = 1
	}
	return &Controller{r: r, opts: opts, log: logger}
}

// Publish implements gesture.Sink.
func (c *Controller) Publish(ev gesture.FeedbackEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	if !ev.InValidRegion {
		c.hideLocked()
		return
	}

	c.gen++
	c.stopTimerLocked()
	c.showLocked(ev)

	if ev.Phase == gesture.PhaseEnded || ev.Phase == gesture.PhaseCancelled {
		gen := c.gen
		c.timer = time.AfterFunc(c.opts.HideDelay, func() { c.fadeStep(gen, 1) })
	}
}

func (c *Controller) showLocked(ev gesture.FeedbackEvent) {
	if err := c.r.SetOpacity(1); err != nil {
		c.log.Debug("hud opacity reset failed", "err", err)
	}
	v := View{
		Candidate: ev.Candidate,
		Title:     ev.Candidate.Title(),
		Action:    ev.Candidate.Action(),
		Progress:  ev.Progress,
		Window:    ev.WindowFrame,
		Cursor:    ev.MouseLocation,
	}
	if err := c.r.Show(v); err != nil {
		c.log.Debug("hud show failed", "err", err)
		return
	}
	c.visible = true
}

func (c *Controller) fadeStep(gen uint64, step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || gen != c.gen {
		return
	}
	steps := c.opts.FadeSteps
	if step >= steps {
		c.timer = nil
		c.hideRendererLocked()
		return
	}
	if err := c.r.SetOpacity(1 - float64(step)/float64(steps)); err != nil {
		c.log.Debug("hud fade failed", "err", err)
	}
	c.timer = time.AfterFunc(c.opts.FadeDuration/time.Duration(steps), func() { c.fadeStep(gen, step+1) })
}

func (c *Controller) hideLocked() {
	c.gen++
	c.stopTimerLocked()
	c.hideRendererLocked()
}

func (c *Controller) hideRendererLocked() {
	if !c.visible {
		return
	}
	if err := c.r.Hide(); err != nil {
		c.log.Debug("hud hide failed", "err", err)
	}
	c.visible = false
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Visible reports whether the overlay is currently shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Stop hides the overlay, cancels pending work and releases the renderer.
// Later events are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.hideLocked()
	c.stopped = true
	if err := c.r.Close(); err != nil {
		c.log.Debug("hud close failed", "err", err)
	}
}
