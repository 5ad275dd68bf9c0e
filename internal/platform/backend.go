package platform

// WindowID identifies an entry in the window server's on-screen list.
type WindowID uint32

// WindowHandle is a validated reference to a window exposed by the
// automation layer. The zero value refers to no window.
type WindowHandle uint32

// Display describes a physical display, its usable work area and the
// insets reserved by panels and docks. Frames are in compositor space
// (top-left origin).
type Display struct {
	ID       int
	Name     string
	Frame    Rect
	Usable   Rect
	Reserved Insets
}

// ServerWindow is one entry of the window server's on-screen list.
type ServerWindow struct {
	ID     WindowID
	PID    int
	Layer  int
	Bounds Rect
}

// Window layers reported by the window server. Everything at or above
// LayerOverlay is chrome that never receives gestures.
const (
	LayerNormal  = 0
	LayerAbove   = 3
	LayerDock    = 20
	LayerOverlay = 25
)

// WindowServer enumerates on-screen windows front-to-back.
type WindowServer interface {
	OnScreenWindows(excludePID int) ([]ServerWindow, error)
}

// Automation queries and drives individual application windows.
//
// Query failures are reported as errors; callers treat them as
// ErrAttributeUnavailable or ErrStaleHandle and never as fatal.
type Automation interface {
	AppWindows(pid int) ([]WindowHandle, error)
	FocusedWindow(pid int) (WindowHandle, error)
	WindowServerID(h WindowHandle) (WindowID, error)
	Frame(h WindowHandle) (Rect, error)
	PID(h WindowHandle) (int, error)
	AppID(h WindowHandle) (string, error)

	FullScreen(h WindowHandle) (bool, error)
	SetFullScreen(h WindowHandle, on bool) error
	HasFullScreenControl(h WindowHandle) bool
	PressFullScreen(h WindowHandle) error
	SendFullScreenShortcut(h WindowHandle) error

	HasCloseControl(h WindowHandle) bool
	PressClose(h WindowHandle) error
	SetMinimized(h WindowHandle, minimized bool) error
}

// DisplayServer enumerates displays and reports the pointer location.
type DisplayServer interface {
	Displays() ([]Display, error)
	PrimaryDisplayID() (int, error)
	// CursorLocation is reported in bottom-left-origin screen space.
	CursorLocation() (Point, error)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	WindowServer
	Automation
	DisplayServer
}

// PrimaryDisplay returns the display whose ID matches id, falling back to
// the first enumerated display.
func PrimaryDisplay(displays []Display, id int) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return displays[0], true
}
