package resolver

import (
	"math"

	"github.com/1broseidon/swish/internal/platform"
)

// fullScreen checks the native attribute first. Vendors in the visual list
// fall back to comparing geometry with the display, preferring the
// window-server bounds over the automation frame.
func (r *Resolver) fullScreen(sc scene, h platform.WindowHandle, appID string, serverBounds *platform.Rect) bool {
	if on, err := r.auto.FullScreen(h); err == nil && on {
		return true
	}
	if !r.isVendor(appID) {
		return false
	}

	var bounds platform.Rect
	if serverBounds != nil {
		bounds = *serverBounds
	} else {
		frame, err := r.auto.Frame(h)
		if err != nil {
			return false
		}
		bounds = frame
	}

	disp := sc.bestDisplay(bounds)
	visual := r.visuallyFullScreen(bounds, disp)
	r.log.Debug("resolver visual full-screen check",
		"window", uint32(h),
		"app", appID,
		"display", disp.Name,
		"result", visual,
	)
	return visual
}

func (r *Resolver) visuallyFullScreen(b platform.Rect, d platform.Display) bool {
	if r.matchesWithin(b, d.Frame) {
		return true
	}
	if !d.Usable.Empty() && r.matchesWithin(b, d.Usable) {
		return true
	}

	// Loose match for partially retracted toolbars: full width, most of the
	// height, anchored at the display top.
	tolX, tolY := r.tolerance(d.Frame)
	return math.Abs(b.Width-d.Frame.Width) <= tolX &&
		b.Height >= r.opts.LooseHeightRatio*d.Frame.Height &&
		math.Abs(b.Y-d.Frame.Y) <= tolY
}

func (r *Resolver) matchesWithin(b, ref platform.Rect) bool {
	tolX, tolY := r.tolerance(ref)
	return math.Abs(b.X-ref.X) <= tolX &&
		math.Abs(b.Y-ref.Y) <= tolY &&
		math.Abs(b.Width-ref.Width) <= tolX &&
		math.Abs(b.Height-ref.Height) <= tolY
}

func (r *Resolver) tolerance(ref platform.Rect) (x, y float64) {
	x = math.Max(r.opts.VisualTolerance, ref.Width*r.opts.VisualToleranceRatio)
	y = math.Max(r.opts.VisualTolerance, ref.Height*r.opts.VisualToleranceRatio)
	return x, y
}
