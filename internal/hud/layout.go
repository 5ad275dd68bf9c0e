package hud

import (
	"math"

	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
)

// Colors
const (
	ColorPanelBg   = 0x1f2933
	ColorPanelText = 0xf5f7fa
	ColorTrack     = 0x3e4c59
	ColorNeutral   = 0x95a5a6
	ColorExpand    = 0x3498db
	ColorMinimize  = 0xf39c12
	ColorRestore   = 0x27ae60
	ColorClose     = 0xe74c3c
)

// BorderThickness of the window highlight in pixels.
const BorderThickness = 4

const (
	panelMargin     = 12
	panelPaddingX   = 10
	panelPaddingY   = 8
	panelLineHeight = 16
	panelCharWidth  = 7
	panelMinWidth   = 220
	barHeight       = 6
	barGap          = 6
	titleBarOffset  = 30
	cursorOffset    = 24
)

func candidateColor(c gesture.Candidate) uint32 {
	switch c {
	case gesture.CandidatePinchOpen, gesture.CandidatePinchClose:
		return ColorExpand
	case gesture.CandidateSwipeDown:
		return ColorMinimize
	case gesture.CandidateSwipeUp:
		return ColorRestore
	case gesture.CandidateCloseWindowHold:
		return ColorClose
	default:
		return ColorNeutral
	}
}

// layout is a view resolved to integer compositor rectangles.
type layout struct {
	Border *rect
	Panel  rect
	Track  rect
	Fill   rect
	Lines  []string
	Color  uint32
}

type rect struct {
	X, Y, Width, Height int
}

func toRect(r platform.Rect) rect {
	return rect{
		X:      int(math.Round(r.X)),
		Y:      int(math.Round(r.Y)),
		Width:  int(math.Round(r.Width)),
		Height: int(math.Round(r.Height)),
	}
}

// computeLayout places the panel just under the target's title bar, or
// under the cursor when there is no target, keeping it inside screen.
// primaryHeight flips the cursor into compositor space.
func computeLayout(v View, screen rect, primaryHeight float64) layout {
	l := layout{
		Lines: []string{v.Title, v.Action},
		Color: candidateColor(v.Candidate),
	}

	maxChars := 0
	for _, line := range l.Lines {
		maxChars = max(maxChars, len(line))
	}
	width := max(panelMinWidth, maxChars*panelCharWidth+2*panelPaddingX)
	height := len(l.Lines)*panelLineHeight + barGap + barHeight + 2*panelPaddingY

	var cx, top int
	if v.Window != nil {
		b := toRect(*v.Window)
		l.Border = &b
		cx = b.X + b.Width/2
		top = b.Y + titleBarOffset + panelMargin
	} else {
		cx = int(math.Round(v.Cursor.X))
		top = int(math.Round(primaryHeight-v.Cursor.Y)) + cursorOffset
	}

	width = min(width, max(1, screen.Width-2*panelMargin))
	x, y := clampOrigin(cx-width/2, top, screen, width, height)
	l.Panel = rect{X: x, Y: y, Width: width, Height: height}

	l.Track = rect{
		X:      x + panelPaddingX,
		Y:      y + height - panelPaddingY - barHeight,
		Width:  max(1, width-2*panelPaddingX),
		Height: barHeight,
	}
	l.Fill = l.Track
	l.Fill.Width = int(math.Round(float64(l.Track.Width) * gesture.Clamp(v.Progress)))
	return l
}

func clampOrigin(x, y int, bounds rect, width, height int) (int, int) {
	left := bounds.X + panelMargin
	right := bounds.X + bounds.Width - panelMargin - width
	if right < left {
		left = bounds.X
		right = max(left, bounds.X+bounds.Width-width)
	}
	top := bounds.Y + panelMargin
	bottom := bounds.Y + bounds.Height - panelMargin - height
	if bottom < top {
		top = bounds.Y
		bottom = max(top, bounds.Y+bounds.Height-height)
	}
	return min(max(x, left), right), min(max(y, top), bottom)
}

// borderBars splits b into top, bottom, left and right bars.
func borderBars(b rect) [4]rect {
	t := BorderThickness
	return [4]rect{
		{X: b.X, Y: b.Y, Width: b.Width, Height: t},
		{X: b.X, Y: b.Y + b.Height - t, Width: b.Width, Height: t},
		{X: b.X, Y: b.Y + t, Width: t, Height: b.Height - 2*t},
		{X: b.X + b.Width - t, Y: b.Y + t, Width: t, Height: b.Height - 2*t},
	}
}
