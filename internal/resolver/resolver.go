// Package resolver maps screen points to the topmost eligible application
// window and decides whether that window is full screen.
//
// Every query reads live window-server state; nothing is cached between
// calls. All failures collapse to "no target".
package resolver

import (
	"context"
	"strings"

	"github.com/1broseidon/swish/internal/platform"
	"pkt.systems/pslog"
)

// Automation is the subset of platform.Automation the resolver reads.
type Automation interface {
	AppWindows(pid int) ([]platform.WindowHandle, error)
	FocusedWindow(pid int) (platform.WindowHandle, error)
	WindowServerID(h platform.WindowHandle) (platform.WindowID, error)
	Frame(h platform.WindowHandle) (platform.Rect, error)
	AppID(h platform.WindowHandle) (string, error)
	FullScreen(h platform.WindowHandle) (bool, error)
}

// Options tunes the resolver geometry. Units are screen units.
type Options struct {
	MinWindowSize        float64
	TitleBarHeight       float64
	TopEdgeBand          float64
	VendorToolbarBand    float64
	VisualTolerance      float64
	VisualToleranceRatio float64
	LooseHeightRatio     float64
	// VisualFullScreenVendors lists app ids (WM_CLASS, case-insensitive)
	// whose full-screen mode is detected from geometry.
	VisualFullScreenVendors []string
}

// DefaultOptions returns the stock resolver tuning.
func DefaultOptions() Options {
	return Options{
		MinWindowSize:        100,
		TitleBarHeight:       30,
		TopEdgeBand:          6,
		VendorToolbarBand:    90,
		VisualTolerance:      10,
		VisualToleranceRatio: 0.01,
		LooseHeightRatio:     0.85,
		VisualFullScreenVendors: []string{
			"Google-chrome",
			"Google-chrome-beta",
			"Google-chrome-unstable",
			"Chromium",
			"Chromium-browser",
		},
	}
}

// WindowDescriptor is a freshly resolved target window.
type WindowDescriptor struct {
	Handle       platform.WindowHandle `json:"handle"`
	ServerID     platform.WindowID     `json:"server_id"`
	PID          int                   `json:"pid"`
	Frame        platform.Rect         `json:"frame"`
	Bounds       platform.Rect         `json:"bounds"`
	IsFullScreen bool                  `json:"is_full_screen"`
	OwnerAppID   string                `json:"owner_app_id,omitempty"`
	Match        Match                 `json:"match"`
}

// Probe is the outcome of one resolution against a point: the target
// window, if any, and whether the point lies in its title-bar region.
type Probe struct {
	Window     *WindowDescriptor
	OnTitleBar bool
}

// Resolver implements window targeting over the platform interfaces.
type Resolver struct {
	windows  platform.WindowServer
	auto     Automation
	displays platform.DisplayServer
	selfPID  int
	opts     Options
	vendors  map[string]struct{}
	log      pslog.Logger
}

// New creates a resolver. Windows owned by selfPID are never targeted.
func New(windows platform.WindowServer, auto Automation, displays platform.DisplayServer, selfPID int, opts Options, logger pslog.Logger) *Resolver {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	vendors := make(map[string]struct{}, len(opts.VisualFullScreenVendors))
	for _, v := range opts.VisualFullScreenVendors {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			vendors[v] = struct{}{}
		}
	}
	return &Resolver{
		windows:  windows,
		auto:     auto,
		displays: displays,
		selfPID:  selfPID,
		opts:     opts,
		vendors:  vendors,
		log:      logger,
	}
}

// ResolveWindowUnderPoint returns the topmost eligible window under p,
// given in bottom-left-origin screen space.
func (r *Resolver) ResolveWindowUnderPoint(p platform.Point) (*WindowDescriptor, bool) {
	probe := r.Probe(p)
	return probe.Window, probe.Window != nil
}

// IsPointOnTitleBar reports whether p is in the gesture-eligible title-bar
// region of the window under it.
func (r *Resolver) IsPointOnTitleBar(p platform.Point) bool {
	return r.Probe(p).OnTitleBar
}

// Probe resolves p once and derives both the target window and the
// title-bar decision from that single resolution.
func (r *Resolver) Probe(p platform.Point) Probe {
	sc, ok := r.scene()
	if !ok {
		return Probe{}
	}
	q := sc.toCompositor(p)
	desc := r.resolveAt(sc, q)
	return Probe{Window: desc, OnTitleBar: r.onTitleBar(sc, q, desc)}
}

// IsFullScreen reports whether h is full screen, natively or visually.
func (r *Resolver) IsFullScreen(h platform.WindowHandle) bool {
	if h == 0 {
		return false
	}
	sc, ok := r.scene()
	if !ok {
		return false
	}
	appID, _ := r.auto.AppID(h)
	return r.fullScreen(sc, h, appID, r.serverBounds(h))
}

func (r *Resolver) resolveAt(sc scene, q platform.Point) *WindowDescriptor {
	wins, err := r.windows.OnScreenWindows(r.selfPID)
	if err != nil {
		r.log.Debug("resolver window list failed", "err", err)
		return nil
	}

	for _, w := range wins {
		if w.Layer < 0 || w.Layer >= platform.LayerOverlay {
			continue
		}
		if w.Bounds.Width < r.opts.MinWindowSize || w.Bounds.Height < r.opts.MinWindowSize {
			continue
		}
		if !w.Bounds.Contains(q) {
			continue
		}

		h, how, ok := r.match(w, q)
		if !ok {
			continue
		}
		frame, err := r.auto.Frame(h)
		if err != nil {
			r.log.Debug("resolver frame query failed", "window", uint32(h), "err", err)
			continue
		}

		appID, _ := r.auto.AppID(h)
		bounds := w.Bounds
		return &WindowDescriptor{
			Handle:       h,
			ServerID:     w.ID,
			PID:          w.PID,
			Frame:        frame,
			Bounds:       w.Bounds,
			IsFullScreen: r.fullScreen(sc, h, appID, &bounds),
			OwnerAppID:   appID,
			Match:        how,
		}
	}
	return nil
}

func (r *Resolver) onTitleBar(sc scene, q platform.Point, desc *WindowDescriptor) bool {
	if desc == nil {
		return false
	}

	disp := sc.displayAt(q)
	fromTop := q.Y - disp.Frame.Y
	if desc.IsFullScreen && fromTop >= 0 {
		if fromTop <= r.opts.TopEdgeBand {
			return true
		}
		if r.isVendor(desc.OwnerAppID) && fromTop <= r.opts.VendorToolbarBand {
			return true
		}
	}

	band := platform.Rect{
		X:      desc.Frame.X,
		Y:      desc.Frame.Y,
		Width:  desc.Frame.Width,
		Height: r.opts.TitleBarHeight,
	}
	return band.Contains(q)
}

// serverBounds looks up the compositor bounds of h, if it is on screen.
func (r *Resolver) serverBounds(h platform.WindowHandle) *platform.Rect {
	id, err := r.auto.WindowServerID(h)
	if err != nil {
		return nil
	}
	wins, err := r.windows.OnScreenWindows(r.selfPID)
	if err != nil {
		return nil
	}
	for _, w := range wins {
		if w.ID == id {
			b := w.Bounds
			return &b
		}
	}
	return nil
}

func (r *Resolver) isVendor(appID string) bool {
	if appID == "" {
		return false
	}
	_, ok := r.vendors[strings.ToLower(appID)]
	return ok
}

// scene is the display layout captured for one query.
type scene struct {
	displays []platform.Display
	primary  platform.Display
}

func (r *Resolver) scene() (scene, bool) {
	displays, err := r.displays.Displays()
	if err != nil || len(displays) == 0 {
		if err != nil {
			r.log.Debug("resolver display query failed", "err", err)
		}
		return scene{}, false
	}
	id, err := r.displays.PrimaryDisplayID()
	if err != nil {
		id = displays[0].ID
	}
	primary, _ := platform.PrimaryDisplay(displays, id)
	return scene{displays: displays, primary: primary}, true
}

// toCompositor flips a bottom-left-origin point into top-left space.
func (s scene) toCompositor(p platform.Point) platform.Point {
	return platform.Point{X: p.X, Y: s.primary.Frame.Height - p.Y}
}

// displayAt returns the display containing q, or the primary display.
func (s scene) displayAt(q platform.Point) platform.Display {
	for _, d := range s.displays {
		if d.Frame.Contains(q) {
			return d
		}
	}
	return s.primary
}

// bestDisplay returns the display with the largest overlap with b.
func (s scene) bestDisplay(b platform.Rect) platform.Display {
	best := s.primary
	bestArea := -1.0
	for _, d := range s.displays {
		if area := d.Frame.Intersect(b).Area(); area > bestArea {
			best, bestArea = d, area
		}
	}
	return best
}
