package resolver

import (
	"fmt"
	"math"

	"github.com/1broseidon/swish/internal/platform"
)

// Match records which strategy paired a window-server entry with an
// automation window.
type Match int

const (
	MatchNone Match = iota
	MatchExactID
	MatchGeometry
	MatchFocused
	MatchFirst
)

func (m Match) String() string {
	switch m {
	case MatchExactID:
		return "exact_id"
	case MatchGeometry:
		return "geometry"
	case MatchFocused:
		return "focused"
	case MatchFirst:
		return "first"
	default:
		return "none"
	}
}

// MarshalText renders the match as its name.
func (m Match) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (m *Match) UnmarshalText(b []byte) error {
	for c := MatchNone; c <= MatchFirst; c++ {
		if c.String() == string(b) {
			*m = c
			return nil
		}
	}
	return fmt.Errorf("unknown match strategy %q", b)
}

type strategy struct {
	kind Match
	find func(r *Resolver, w platform.ServerWindow, q platform.Point, handles []platform.WindowHandle) (platform.WindowHandle, bool)
}

// strategies run in order; the first hit wins.
var strategies = []strategy{
	{kind: MatchExactID, find: matchExactID},
	{kind: MatchGeometry, find: matchGeometry},
	{kind: MatchFocused, find: matchFocused},
	{kind: MatchFirst, find: matchFirst},
}

func (r *Resolver) match(w platform.ServerWindow, q platform.Point) (platform.WindowHandle, Match, bool) {
	handles, err := r.auto.AppWindows(w.PID)
	if err != nil || len(handles) == 0 {
		if err != nil {
			r.log.Debug("resolver app windows failed", "pid", w.PID, "err", err)
		}
		return 0, MatchNone, false
	}

	for _, s := range strategies {
		if h, ok := s.find(r, w, q, handles); ok {
			if s.kind != MatchExactID {
				r.log.Debug("resolver window mapping fallback",
					"server_id", uint32(w.ID),
					"strategy", s.kind.String(),
					"candidates", len(handles),
				)
			}
			return h, s.kind, true
		}
	}
	return 0, MatchNone, false
}

func matchExactID(r *Resolver, w platform.ServerWindow, _ platform.Point, handles []platform.WindowHandle) (platform.WindowHandle, bool) {
	for _, h := range handles {
		if id, err := r.auto.WindowServerID(h); err == nil && id == w.ID {
			return h, true
		}
	}
	return 0, false
}

// matchGeometry picks the candidate with the largest overlap with the
// window-server bounds, breaking ties by the smallest area difference.
func matchGeometry(r *Resolver, w platform.ServerWindow, q platform.Point, handles []platform.WindowHandle) (platform.WindowHandle, bool) {
	var (
		best      platform.WindowHandle
		bestFrame platform.Rect
		bestArea  = -1.0
		bestDiff  = math.Inf(1)
	)
	for _, h := range handles {
		frame, err := r.auto.Frame(h)
		if err != nil {
			continue
		}
		if !frame.Contains(q) && !frame.Intersects(w.Bounds) {
			continue
		}
		area := frame.Intersect(w.Bounds).Area()
		diff := math.Abs(frame.Area() - w.Bounds.Area())
		if area > bestArea || (area == bestArea && diff < bestDiff) {
			best, bestFrame, bestArea, bestDiff = h, frame, area, diff
		}
	}
	if best == 0 {
		return 0, false
	}
	if !bestFrame.Contains(q) && bestArea <= 0 {
		return 0, false
	}
	return best, true
}

func matchFocused(r *Resolver, w platform.ServerWindow, _ platform.Point, _ []platform.WindowHandle) (platform.WindowHandle, bool) {
	h, err := r.auto.FocusedWindow(w.PID)
	if err != nil || h == 0 {
		return 0, false
	}
	return h, true
}

func matchFirst(_ *Resolver, _ platform.ServerWindow, _ platform.Point, handles []platform.WindowHandle) (platform.WindowHandle, bool) {
	if len(handles) == 0 {
		return 0, false
	}
	return handles[0], true
}
