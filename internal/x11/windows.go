package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// maxClientSearchDepth bounds the descent from a WM frame to its client.
const maxClientSearchDepth = 4

// TopLevel is a viewable child of the root window, i.e. a WM frame or an
// unmanaged override-redirect window, paired with the client it decorates.
type TopLevel struct {
	Frame            xproto.Window
	Client           xproto.Window
	X, Y             int
	Width, Height    int
	OverrideRedirect bool
}

// StackedTopLevels returns the viewable top-level windows front-to-back.
func (c *Connection) StackedTopLevels() ([]TopLevel, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query root tree: %w", err)
	}

	out := make([]TopLevel, 0, len(tree.Children))
	// QueryTree lists children bottom-to-top.
	for i := len(tree.Children) - 1; i >= 0; i-- {
		frame := tree.Children[i]
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), frame).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(frame)).Reply()
		if err != nil {
			continue
		}

		client := frame
		if !attrs.OverrideRedirect {
			if found, ok := c.findClient(frame, maxClientSearchDepth); ok {
				client = found
			}
		}

		out = append(out, TopLevel{
			Frame:            frame,
			Client:           client,
			X:                int(geom.X),
			Y:                int(geom.Y),
			Width:            int(geom.Width),
			Height:           int(geom.Height),
			OverrideRedirect: attrs.OverrideRedirect,
		})
	}
	return out, nil
}

// findClient descends from win to the first window carrying WM_STATE.
func (c *Connection) findClient(win xproto.Window, depth int) (xproto.Window, bool) {
	if _, err := icccm.WmStateGet(c.XUtil, win); err == nil {
		return win, true
	}
	if depth == 0 {
		return 0, false
	}
	tree, err := xproto.QueryTree(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return 0, false
	}
	for _, child := range tree.Children {
		if found, ok := c.findClient(child, depth-1); ok {
			return found, true
		}
	}
	return 0, false
}

// TopLevelAncestor walks up from win to the child of the root that contains
// it. For reparenting window managers this is the frame window.
func (c *Connection) TopLevelAncestor(win xproto.Window) (xproto.Window, error) {
	current := win
	for {
		tree, err := xproto.QueryTree(c.XUtil.Conn(), current).Reply()
		if err != nil {
			return 0, err
		}
		if tree.Parent == c.Root || tree.Parent == 0 {
			return current, nil
		}
		current = tree.Parent
	}
}

// ClientWindows returns the managed client windows in stacking order
// (bottom-to-top), falling back to _NET_CLIENT_LIST.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	if wins, err := ewmh.ClientListStackingGet(c.XUtil); err == nil {
		return wins, nil
	}
	return ewmh.ClientListGet(c.XUtil)
}

// WindowPID returns _NET_WM_PID for win.
func (c *Connection) WindowPID(win xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, win)
	if err != nil {
		return 0, err
	}
	return int(pid), nil
}

// WindowClass returns the WM_CLASS class name of win.
func (c *Connection) WindowClass(win xproto.Window) (string, error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, win)
	if err != nil {
		return "", err
	}
	return wmClass.Class, nil
}

// WindowRect returns the client area of win in root coordinates.
func (c *Connection) WindowRect(win xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		win,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		// No frame extents available, return zeros
		return 0, 0, 0, 0
	}

	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// WindowTypes returns _NET_WM_WINDOW_TYPE for win.
func (c *Connection) WindowTypes(win xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return nil
	}
	return types
}

func (c *Connection) hasWindowType(win xproto.Window, want string) bool {
	for _, t := range c.WindowTypes(win) {
		if t == want {
			return true
		}
	}
	return false
}

// HasState reports whether _NET_WM_STATE on win contains state.
func (c *Connection) HasState(win xproto.Window, state string) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return false, err
	}
	for _, s := range states {
		if s == state {
			return true, nil
		}
	}
	return false, nil
}

// SupportsProtocol reports whether WM_PROTOCOLS on win lists protocol.
func (c *Connection) SupportsProtocol(win xproto.Window, protocol string) bool {
	protocols, err := icccm.WmProtocolsGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, p := range protocols {
		if p == protocol {
			return true
		}
	}
	return false
}

// Exists reports whether win is still a valid window on the server.
func (c *Connection) Exists(win xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	return err == nil
}

// SetWindowPID tags win with the given _NET_WM_PID.
func (c *Connection) SetWindowPID(win xproto.Window, pid int) error {
	return ewmh.WmPidSet(c.XUtil, win, uint(pid))
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY on win; compositors honour it for
// override-redirect windows too.
func (c *Connection) SetOpacity(win xproto.Window, opacity float64) error {
	if opacity >= 1 {
		return xprop.ChangeProp32(c.XUtil, win, "_NET_WM_WINDOW_OPACITY", "CARDINAL", 0xffffffff)
	}
	if opacity < 0 {
		opacity = 0
	}
	return ewmh.WmWindowOpacitySet(c.XUtil, win, opacity)
}
