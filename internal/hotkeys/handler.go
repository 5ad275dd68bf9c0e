package hotkeys

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"pkt.systems/pslog"
)

// Pauser flips gesture processing on and off.
type Pauser interface {
	TogglePause() bool
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	log  pslog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler on an initialized keybind
// connection.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, logger pslog.Logger) *Handler {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})
	return &Handler{xu: xu, root: root, log: logger}
}

// RegisterPause binds keySequence to toggling p. An empty sequence
// registers nothing.
func (h *Handler) RegisterPause(keySequence string, p Pauser) error {
	if keySequence == "" {
		return nil
	}
	if err := h.RegisterFunc(keySequence, func() {
		paused := p.TogglePause()
		h.log.Info("pause hotkey triggered", "paused", paused)
	}); err != nil {
		return fmt.Errorf("failed to register pause hotkey %q: %w", keySequence, err)
	}
	h.log.Info("pause hotkey registered", "keys", keySequence)
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")
	xevent.IgnoreMods = ignoreMasks(uint16(xproto.ModMaskLock), numLock, scrollLock)
}

// ignoreMasks returns every combination of the lock modifiers, including
// none, so a hotkey fires regardless of CapsLock, NumLock or ScrollLock.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	sort.Slice(ignore, func(i, j int) bool { return ignore[i] < ignore[j] })
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
