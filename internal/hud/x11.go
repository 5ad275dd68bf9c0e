//go:build linux

package hud

import (
	"context"
	"errors"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/x11"
)

// X11Renderer draws the HUD with override-redirect windows. Every window
// carries this process's _NET_WM_PID so the resolver never targets it.
type X11Renderer struct {
	conn     *x11.Connection
	displays platform.DisplayServer
	log      pslog.Logger

	border [4]xproto.Window
	panel  xproto.Window
	track  xproto.Window
	fill   xproto.Window
	gc     xproto.Gcontext
	font   xproto.Font

	created bool
	mapped  bool
}

// NewX11Renderer creates a renderer. Windows are created on first Show.
func NewX11Renderer(conn *x11.Connection, displays platform.DisplayServer, logger pslog.Logger) *X11Renderer {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &X11Renderer{conn: conn, displays: displays, log: logger}
}

func (r *X11Renderer) windows() []xproto.Window {
	return []xproto.Window{r.border[0], r.border[1], r.border[2], r.border[3], r.panel, r.track, r.fill}
}

// Show implements Renderer.
func (r *X11Renderer) Show(v View) error {
	if err := r.ensure(); err != nil {
		return err
	}
	screen, primaryHeight := r.screen()
	l := computeLayout(v, screen, primaryHeight)
	conn := r.conn.XUtil.Conn()

	if l.Border != nil {
		for i, bar := range borderBars(*l.Border) {
			r.place(r.border[i], bar, l.Color)
			xproto.MapWindow(conn, r.border[i])
		}
	} else {
		for _, w := range r.border {
			xproto.UnmapWindow(conn, w)
		}
	}

	r.place(r.panel, l.Panel, ColorPanelBg)
	xproto.MapWindow(conn, r.panel)
	r.drawText(l)

	r.place(r.track, l.Track, ColorTrack)
	xproto.MapWindow(conn, r.track)
	if l.Fill.Width > 0 {
		r.place(r.fill, l.Fill, l.Color)
		xproto.MapWindow(conn, r.fill)
	} else {
		xproto.UnmapWindow(conn, r.fill)
	}

	r.mapped = true
	return nil
}

// SetOpacity implements Renderer.
func (r *X11Renderer) SetOpacity(alpha float64) error {
	if !r.created {
		return nil
	}
	var errs []error
	for _, w := range r.windows() {
		if err := r.conn.SetOpacity(w, alpha); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hide implements Renderer.
func (r *X11Renderer) Hide() error {
	if !r.mapped {
		return nil
	}
	for _, w := range r.windows() {
		xproto.UnmapWindow(r.conn.XUtil.Conn(), w)
	}
	r.mapped = false
	return nil
}

// Close implements Renderer.
func (r *X11Renderer) Close() error {
	if !r.created {
		return nil
	}
	conn := r.conn.XUtil.Conn()
	if r.gc != 0 {
		xproto.FreeGC(conn, r.gc)
	}
	if r.font != 0 {
		xproto.CloseFont(conn, r.font)
	}
	for _, w := range r.windows() {
		if w != 0 {
			xproto.DestroyWindow(conn, w)
		}
	}
	*r = X11Renderer{conn: r.conn, displays: r.displays, log: r.log}
	return nil
}

func (r *X11Renderer) ensure() error {
	if r.created {
		return nil
	}
	ids := make([]xproto.Window, 0, 7)
	for range 7 {
		w, err := r.createOverrideRedirectWindow()
		if err != nil {
			for _, id := range ids {
				xproto.DestroyWindow(r.conn.XUtil.Conn(), id)
			}
			return err
		}
		ids = append(ids, w)
	}
	copy(r.border[:], ids[:4])
	r.panel, r.track, r.fill = ids[4], ids[5], ids[6]
	r.created = true

	if err := r.openFont(); err != nil {
		r.log.Debug("hud text disabled", "err", err)
	}
	return nil
}

func (r *X11Renderer) createOverrideRedirectWindow() (xproto.Window, error) {
	xu := r.conn.XUtil
	conn := xu.Conn()
	screen := xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	// Value list order follows the mask bit positions: back_pixel first,
	// then override_redirect.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		r.conn.Root,
		0, 0,
		1, 1,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{0, 1},
	).Check()
	if err != nil {
		return 0, err
	}
	if err := r.conn.SetWindowPID(wid, os.Getpid()); err != nil {
		r.log.Debug("hud pid tag failed", "window", uint32(wid), "err", err)
	}
	return wid, nil
}

func (r *X11Renderer) openFont() error {
	conn := r.conn.XUtil.Conn()
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return err
	}
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if err = xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			break
		}
	}
	if err != nil {
		return err
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.CloseFont(conn, font)
		return err
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(r.panel),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{ColorPanelText, ColorPanelBg, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.CloseFont(conn, font)
		return err
	}
	r.font, r.gc = font, gc
	return nil
}

func (r *X11Renderer) drawText(l layout) {
	if r.gc == 0 {
		return
	}
	conn := r.conn.XUtil.Conn()
	baseline := panelPaddingY + panelLineHeight - 4
	for i, line := range l.Lines {
		if line == "" {
			continue
		}
		if len(line) > 255 {
			line = line[:255]
		}
		xproto.ImageText8(conn, byte(len(line)), xproto.Drawable(r.panel), r.gc,
			int16(panelPaddingX), int16(baseline+i*panelLineHeight), line)
	}
}

// place moves, resizes, raises and recolors a window.
func (r *X11Renderer) place(w xproto.Window, b rect, color uint32) {
	conn := r.conn.XUtil.Conn()
	xproto.ConfigureWindow(
		conn,
		w,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(int32(b.X)),
			uint32(int32(b.Y)),
			uint32(max(1, b.Width)),
			uint32(max(1, b.Height)),
			xproto.StackModeAbove,
		},
	)
	xproto.ChangeWindowAttributes(conn, w, xproto.CwBackPixel, []uint32{color})
	xproto.ClearArea(conn, false, w, 0, 0, 0, 0)
}

// screen returns the root bounds and the primary display height used to
// flip cursor coordinates.
func (r *X11Renderer) screen() (rect, float64) {
	s := r.conn.XUtil.Screen()
	bounds := rect{Width: int(s.WidthInPixels), Height: int(s.HeightInPixels)}
	primaryHeight := float64(s.HeightInPixels)
	if r.displays == nil {
		return bounds, primaryHeight
	}
	displays, err := r.displays.Displays()
	if err != nil {
		return bounds, primaryHeight
	}
	id, _ := r.displays.PrimaryDisplayID()
	if d, ok := platform.PrimaryDisplay(displays, id); ok {
		primaryHeight = d.Frame.Height
	}
	return bounds, primaryHeight
}
