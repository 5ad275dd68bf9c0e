package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil/keybind"
)

// modifierKeysyms maps keybind modifier names to the keysym pressed for them.
var modifierKeysyms = map[string]string{
	"shift":   "Shift_L",
	"control": "Control_L",
	"ctrl":    "Control_L",
	"mod1":    "Alt_L",
	"alt":     "Alt_L",
	"mod4":    "Super_L",
	"super":   "Super_L",
}

// SendKeyCombo synthesizes a key press and release for a keybind-style
// sequence such as "F11" or "Control-Mod4-f" using the XTEST extension.
// The event goes to whichever window holds the input focus.
func (c *Connection) SendKeyCombo(combo string) error {
	if !c.hasXTest {
		return fmt.Errorf("xtest extension unavailable")
	}

	parts := strings.Split(combo, "-")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return fmt.Errorf("invalid key combo %q", combo)
	}

	var mods []xproto.Keycode
	for _, part := range parts[:len(parts)-1] {
		sym, ok := modifierKeysyms[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return fmt.Errorf("unknown modifier %q in %q", part, combo)
		}
		codes := keybind.StrToKeycodes(c.XUtil, sym)
		if len(codes) == 0 {
			return fmt.Errorf("no keycode for %s", sym)
		}
		mods = append(mods, codes[0])
	}

	keyCodes := keybind.StrToKeycodes(c.XUtil, strings.TrimSpace(parts[len(parts)-1]))
	if len(keyCodes) == 0 {
		return fmt.Errorf("no keycode for %q", parts[len(parts)-1])
	}
	key := keyCodes[0]

	for _, m := range mods {
		if err := c.fakeKey(xproto.KeyPress, m); err != nil {
			return err
		}
	}
	if err := c.fakeKey(xproto.KeyPress, key); err != nil {
		return err
	}
	if err := c.fakeKey(xproto.KeyRelease, key); err != nil {
		return err
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := c.fakeKey(xproto.KeyRelease, mods[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connection) fakeKey(eventType byte, code xproto.Keycode) error {
	return xtest.FakeInputChecked(
		c.XUtil.Conn(),
		eventType,
		byte(code),
		xproto.TimeCurrentTime,
		c.Root,
		0, 0,
		0,
	).Check()
}
