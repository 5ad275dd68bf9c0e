package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
	// Struts reserved on this monitor by docks and panels.
	Struts Struts
}

// Struts are the edge reservations of dock windows clipped to a monitor.
type Struts struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if !c.hasRandR {
		return c.rootMonitor()
	}

	// Get screen resources
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				isPrimary = true
				break
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	if len(monitors) == 0 {
		return c.rootMonitor()
	}

	c.applyDockStruts(monitors)
	return monitors, nil
}

// rootMonitor describes the whole root window as a single monitor.
func (c *Connection) rootMonitor() ([]Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	monitors := []Monitor{{
		ID:      0,
		Name:    "root",
		Width:   int(geom.Width),
		Height:  int(geom.Height),
		Primary: true,
	}}
	c.applyDockStruts(monitors)
	return monitors, nil
}

// PrimaryMonitorID returns the ID of the RandR primary monitor, or the first
// monitor when no primary output is configured.
func (c *Connection) PrimaryMonitorID() (int, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return 0, err
	}
	if len(monitors) == 0 {
		return 0, fmt.Errorf("no monitors found")
	}
	for _, m := range monitors {
		if m.Primary {
			return m.ID, nil
		}
	}
	return monitors[0].ID, nil
}

// Pointer returns the pointer location in root coordinates.
func (c *Connection) Pointer() (x, y int, err error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

// WatchScreenChanges invokes fn whenever RandR reports a screen, CRTC or
// output change. fn runs on the X event loop.
func (c *Connection) WatchScreenChanges(fn func()) error {
	if !c.hasRandR {
		return fmt.Errorf("randr extension unavailable")
	}
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
		return fmt.Errorf("randr select input: %w", err)
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		switch event.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			fn()
		}
		return true
	}).Connect(c.XUtil)
	return nil
}

func (c *Connection) applyDockStruts(monitors []Monitor) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return
	}

	for _, windowID := range clients {
		if !c.hasWindowType(windowID, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, err := ewmh.WmStrutGet(c.XUtil, windowID)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
		}

		for i := range monitors {
			updateStrutsForMonitor(&monitors[i], rootWidth, rootHeight, sp)
		}
	}
}

func updateStrutsForMonitor(monitor *Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial) {
	monX1 := monitor.X
	monY1 := monitor.Y
	monX2 := monitor.X + monitor.Width
	monY2 := monitor.Y + monitor.Height
	acc := &monitor.Struts

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		x1 := int(sp.TopStartX)
		x2 := int(sp.TopEndX) + 1
		isect := intersectionSize(monX1, monY1, monX2, monY2, x1, 0, x2, int(sp.Top))
		acc.Top = max(acc.Top, isect.h)
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		x1 := int(sp.BottomStartX)
		x2 := int(sp.BottomEndX) + 1
		isect := intersectionSize(monX1, monY1, monX2, monY2, x1, rootHeight-int(sp.Bottom), x2, rootHeight)
		acc.Bottom = max(acc.Bottom, isect.h)
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		y1 := int(sp.LeftStartY)
		y2 := int(sp.LeftEndY) + 1
		isect := intersectionSize(monX1, monY1, monX2, monY2, 0, y1, int(sp.Left), y2)
		acc.Left = max(acc.Left, isect.w)
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		y1 := int(sp.RightStartY)
		y2 := int(sp.RightEndY) + 1
		isect := intersectionSize(monX1, monY1, monX2, monY2, rootWidth-int(sp.Right), y1, rootWidth, y2)
		acc.Right = max(acc.Right, isect.w)
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}
