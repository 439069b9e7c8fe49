package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/duoview/internal/layout"
)

// Window describes a managed client window.
type Window struct {
	ID       xproto.Window
	Class    string
	Instance string
	Title    string
	Geometry layout.Rect
}

// Windows lists the EWMH client list with class, title and root geometry.
// Windows whose geometry cannot be read are skipped.
func (c *Connection) Windows() ([]Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	out := make([]Window, 0, len(clients))
	for _, id := range clients {
		geom, err := c.WindowGeometry(id)
		if err != nil {
			continue
		}
		w := Window{ID: id, Geometry: geom}
		if class, err := icccm.WmClassGet(c.XUtil, id); err == nil && class != nil {
			w.Class = class.Class
			w.Instance = class.Instance
		}
		if title, err := ewmh.WmNameGet(c.XUtil, id); err == nil && title != "" {
			w.Title = title
		} else if title, err := icccm.WmNameGet(c.XUtil, id); err == nil {
			w.Title = title
		}
		out = append(out, w)
	}
	return out, nil
}

// WindowGeometry returns a window's rectangle in root coordinates.
func (c *Connection) WindowGeometry(id xproto.Window) (layout.Rect, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return layout.Rect{}, fmt.Errorf("geometry of window %d: %w", id, err)
	}
	pos, err := xproto.TranslateCoordinates(c.XUtil.Conn(), id, c.Root, 0, 0).Reply()
	if err != nil {
		return layout.Rect{}, fmt.Errorf("translate window %d: %w", id, err)
	}
	return layout.NewRect(int(pos.DstX), int(pos.DstY), int(geom.Width), int(geom.Height)), nil
}

// MoveResizeWindow places the client area of a window at r. Maximized state
// is cleared first and frame decorations are subtracted so the content lands
// exactly on r.
func (c *Connection) MoveResizeWindow(id xproto.Window, r layout.Rect) error {
	c.unmaximize(id)

	x, y, w, h := r.Left, r.Top, r.Width(), r.Height()
	if ext, err := ewmh.FrameExtentsGet(c.XUtil, id); err == nil {
		x -= int(ext.Left)
		y -= int(ext.Top)
	}
	if w < 1 || h < 1 {
		return fmt.Errorf("window %d: refusing to resize to %dx%d", id, w, h)
	}

	if err := ewmh.MoveresizeWindow(c.XUtil, id, x, y, w, h); err != nil {
		// Not every WM honours _NET_MOVERESIZE_WINDOW.
		xwindow.New(c.XUtil, id).MoveResize(x, y, w, h)
	}
	return nil
}

func (c *Connection) unmaximize(id xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, id)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" ||
			state == "_NET_WM_STATE_FULLSCREEN" {
			_ = ewmh.WmStateReq(c.XUtil, id, ewmh.StateRemove, state)
		}
	}
}

func (c *Connection) hasWindowType(id xproto.Window, want string) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, id)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// ActiveWindow returns the focused client window.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// CaptureRegion reads r from the root window. It assumes a 24 or 32 bit
// TrueColor visual with BGRx byte order, which is what Xorg and Xwayland use.
func (c *Connection) CaptureRegion(r layout.Rect) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("capture region %v is empty", r)
	}
	reply, err := xproto.GetImage(
		c.XUtil.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.Root),
		int16(r.Left), int16(r.Top),
		uint16(r.Width()), uint16(r.Height()),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("get image %v: %w", r, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	data := reply.Data
	for i := 0; i+3 < len(data) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
