package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

const sourceIndication = 2 // pager/direct action

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Activating an iconified window also de-iconifies it.
// We build the message manually because the xgbutil ewmh request helpers
// panic on this library version (uint vs int type assertion).
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	return c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourceIndication, 0, 0, 0, 0)
}

// Iconify asks the window manager to minimize a window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(windowID, "WM_CHANGE_STATE", iconicState, 0, 0, 0, 0)
}

// SetFullScreen adds or removes _NET_WM_STATE_FULLSCREEN.
func (c *Connection) SetFullScreen(windowID xproto.Window, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_FULLSCREEN")
}

// RequestClose requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) RequestClose(windowID xproto.Window) error {
	deleteAtom, err := c.internAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.internAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

func (c *Connection) sendRootMessage(windowID xproto.Window, messageType string, data ...uint32) error {
	atom, err := c.internAtom(messageType)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", messageType, err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(data),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
