//go:build linux

package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/swish/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// DefaultFullScreenShortcut is the key sequence most X11 applications bind
// to toggling full screen.
const DefaultFullScreenShortcut = "F11"

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection

	mu       sync.Mutex
	shortcut string
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn, shortcut: DefaultFullScreenShortcut}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// SetFullScreenShortcut overrides the key sequence sent by
// SendFullScreenShortcut.
func (b *LinuxBackend) SetFullScreenShortcut(keys string) {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		keys = DefaultFullScreenShortcut
	}
	b.mu.Lock()
	b.shortcut = keys
	b.mu.Unlock()
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// QuitEventLoop stops a running EventLoop.
func (b *LinuxBackend) QuitEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// Conn returns the underlying X11 connection.
func (b *LinuxBackend) Conn() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// PrimaryDisplayID returns the RandR primary display.
func (b *LinuxBackend) PrimaryDisplayID() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.PrimaryMonitorID()
}

// CursorLocation returns the pointer in bottom-left-origin space, flipped
// against the primary display height.
func (b *LinuxBackend) CursorLocation() (Point, error) {
	conn, err := b.connection()
	if err != nil {
		return Point{}, err
	}
	x, y, err := conn.Pointer()
	if err != nil {
		return Point{}, err
	}
	displays, err := b.Displays()
	if err != nil {
		return Point{}, err
	}
	primaryID, _ := conn.PrimaryMonitorID()
	primary, ok := PrimaryDisplay(displays, primaryID)
	if !ok {
		return Point{}, ErrNoTarget
	}
	return Point{X: float64(x), Y: primary.Frame.Height - float64(y)}, nil
}

// OnScreenWindows lists viewable top-level windows front-to-back, excluding
// desktop windows and windows owned by excludePID.
func (b *LinuxBackend) OnScreenWindows(excludePID int) ([]ServerWindow, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	tops, err := conn.StackedTopLevels()
	if err != nil {
		return nil, err
	}

	out := make([]ServerWindow, 0, len(tops))
	for _, top := range tops {
		pid, _ := conn.WindowPID(top.Client)
		if excludePID != 0 && pid == excludePID {
			continue
		}
		layer, ok := b.layerFor(top)
		if !ok {
			continue
		}
		out = append(out, ServerWindow{
			ID:    WindowID(top.Frame),
			PID:   pid,
			Layer: layer,
			Bounds: Rect{
				X:      float64(top.X),
				Y:      float64(top.Y),
				Width:  float64(top.Width),
				Height: float64(top.Height),
			},
		})
	}
	return out, nil
}

// layerFor maps window type and state onto a stacking layer. Desktop
// windows are reported as not eligible.
func (b *LinuxBackend) layerFor(top x11.TopLevel) (int, bool) {
	if top.OverrideRedirect {
		return LayerOverlay, true
	}
	for _, t := range b.conn.WindowTypes(top.Client) {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return 0, false
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return LayerDock, true
		case "_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_POPUP_MENU",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
			"_NET_WM_WINDOW_TYPE_COMBO",
			"_NET_WM_WINDOW_TYPE_DND",
			"_NET_WM_WINDOW_TYPE_SPLASH":
			return LayerOverlay, true
		}
	}
	if above, _ := b.conn.HasState(top.Client, "_NET_WM_STATE_ABOVE"); above {
		return LayerAbove, true
	}
	return LayerNormal, true
}

// AppWindows returns the managed client windows owned by pid, topmost first.
func (b *LinuxBackend) AppWindows(pid int) ([]WindowHandle, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, fmt.Errorf("%w: client list: %v", ErrAttributeUnavailable, err)
	}

	var out []WindowHandle
	for i := len(clients) - 1; i >= 0; i-- {
		p, err := conn.WindowPID(clients[i])
		if err != nil || p != pid {
			continue
		}
		out = append(out, WindowHandle(clients[i]))
	}
	return out, nil
}

// FocusedWindow returns the active window if it belongs to pid.
func (b *LinuxBackend) FocusedWindow(pid int) (WindowHandle, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	active, err := ewmh.ActiveWindowGet(conn.XUtil)
	if err != nil || active == 0 {
		return 0, fmt.Errorf("%w: no active window", ErrAttributeUnavailable)
	}
	if p, err := conn.WindowPID(active); err != nil || p != pid {
		return 0, fmt.Errorf("%w: active window not owned by pid %d", ErrAttributeUnavailable, pid)
	}
	return WindowHandle(active), nil
}

// WindowServerID returns the top-level (frame) window containing h.
func (b *LinuxBackend) WindowServerID(h WindowHandle) (WindowID, error) {
	conn, err := b.live(h)
	if err != nil {
		return 0, err
	}
	frame, err := conn.TopLevelAncestor(xproto.Window(h))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStaleHandle, err)
	}
	return WindowID(frame), nil
}

// Frame returns the outer frame of h, decorations included.
func (b *LinuxBackend) Frame(h WindowHandle) (Rect, error) {
	conn, err := b.live(h)
	if err != nil {
		return Rect{}, err
	}
	x, y, w, hgt, err := conn.WindowRect(xproto.Window(h))
	if err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrStaleHandle, err)
	}
	left, right, top, bottom := conn.GetFrameExtents(xproto.Window(h))
	return Rect{
		X:      float64(x - left),
		Y:      float64(y - top),
		Width:  float64(w + left + right),
		Height: float64(hgt + top + bottom),
	}, nil
}

// PID returns _NET_WM_PID of h.
func (b *LinuxBackend) PID(h WindowHandle) (int, error) {
	conn, err := b.live(h)
	if err != nil {
		return 0, err
	}
	pid, err := conn.WindowPID(xproto.Window(h))
	if err != nil {
		return 0, fmt.Errorf("%w: _NET_WM_PID: %v", ErrAttributeUnavailable, err)
	}
	return pid, nil
}

// AppID returns the WM_CLASS class of h.
func (b *LinuxBackend) AppID(h WindowHandle) (string, error) {
	conn, err := b.live(h)
	if err != nil {
		return "", err
	}
	class, err := conn.WindowClass(xproto.Window(h))
	if err != nil {
		return "", fmt.Errorf("%w: WM_CLASS: %v", ErrAttributeUnavailable, err)
	}
	return strings.TrimSpace(class), nil
}

// FullScreen reports _NET_WM_STATE_FULLSCREEN on h.
func (b *LinuxBackend) FullScreen(h WindowHandle) (bool, error) {
	conn, err := b.live(h)
	if err != nil {
		return false, err
	}
	on, err := conn.HasState(xproto.Window(h), "_NET_WM_STATE_FULLSCREEN")
	if err != nil {
		return false, fmt.Errorf("%w: _NET_WM_STATE: %v", ErrAttributeUnavailable, err)
	}
	return on, nil
}

// SetFullScreen asks the window manager to enter or leave full screen.
func (b *LinuxBackend) SetFullScreen(h WindowHandle, on bool) error {
	conn, err := b.live(h)
	if err != nil {
		return err
	}
	if err := conn.SetFullScreen(xproto.Window(h), on); err != nil {
		return fmt.Errorf("%w: %v", ErrAttributeUnavailable, err)
	}
	return nil
}

// HasFullScreenControl is always false: X11 decorations belong to the
// window manager and expose no pressable full-screen control.
func (b *LinuxBackend) HasFullScreenControl(WindowHandle) bool { return false }

// PressFullScreen always fails with ErrAttributeUnavailable.
func (b *LinuxBackend) PressFullScreen(h WindowHandle) error {
	return fmt.Errorf("%w: full-screen control on window 0x%x", ErrAttributeUnavailable, uint32(h))
}

// SendFullScreenShortcut focuses h and synthesizes the full-screen key
// sequence.
func (b *LinuxBackend) SendFullScreenShortcut(h WindowHandle) error {
	conn, err := b.live(h)
	if err != nil {
		return err
	}
	if err := conn.FocusWindow(xproto.Window(h)); err != nil {
		return fmt.Errorf("focus window 0x%x: %w", uint32(h), err)
	}
	b.mu.Lock()
	keys := b.shortcut
	b.mu.Unlock()
	if err := conn.SendKeyCombo(keys); err != nil {
		return fmt.Errorf("%w: shortcut %s: %v", ErrAttributeUnavailable, keys, err)
	}
	return nil
}

// HasCloseControl reports whether h participates in WM_DELETE_WINDOW.
func (b *LinuxBackend) HasCloseControl(h WindowHandle) bool {
	conn, err := b.live(h)
	if err != nil {
		return false
	}
	return conn.SupportsProtocol(xproto.Window(h), "WM_DELETE_WINDOW")
}

// PressClose requests a graceful close of h.
func (b *LinuxBackend) PressClose(h WindowHandle) error {
	conn, err := b.live(h)
	if err != nil {
		return err
	}
	if !conn.SupportsProtocol(xproto.Window(h), "WM_DELETE_WINDOW") {
		return fmt.Errorf("%w: window 0x%x lacks WM_DELETE_WINDOW", ErrAttributeUnavailable, uint32(h))
	}
	return conn.RequestClose(xproto.Window(h))
}

// SetMinimized iconifies h, or activates it to de-iconify.
func (b *LinuxBackend) SetMinimized(h WindowHandle, minimized bool) error {
	conn, err := b.live(h)
	if err != nil {
		return err
	}
	if minimized {
		return conn.Iconify(xproto.Window(h))
	}
	return conn.FocusWindow(xproto.Window(h))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

// live returns the connection after checking that h still exists.
func (b *LinuxBackend) live(h WindowHandle) (*x11.Connection, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	if h == 0 || !conn.Exists(xproto.Window(h)) {
		return nil, fmt.Errorf("%w: window 0x%x", ErrStaleHandle, uint32(h))
	}
	return conn, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	frame := Rect{
		X:      float64(m.X),
		Y:      float64(m.Y),
		Width:  float64(m.Width),
		Height: float64(m.Height),
	}
	reserved := Insets{
		Top:    float64(m.Struts.Top),
		Left:   float64(m.Struts.Left),
		Bottom: float64(m.Struts.Bottom),
		Right:  float64(m.Struts.Right),
	}
	return Display{
		ID:       m.ID,
		Name:     m.Name,
		Frame:    frame,
		Usable:   frame.Inset(reserved),
		Reserved: reserved,
	}
}
