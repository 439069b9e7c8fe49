//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// Connection exposes the X11 connection for hotkeys and capture.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// Displays returns all active displays ordered by id.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	monitors, err := conn.Monitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{ID: m.ID, Name: m.Name, Bounds: m.Area, Usable: m.Area})
	}
	sort.Slice(displays, func(i, j int) bool { return displays[i].ID < displays[j].ID })
	return displays, nil
}

// ActiveDisplay returns the display with focus. Usable excludes docks.
func (b *LinuxBackend) ActiveDisplay() (Display, error) {
	conn, err := b.connection()
	if err != nil {
		return Display{}, err
	}
	active, err := conn.ActiveMonitor()
	if err != nil {
		return Display{}, err
	}

	d := Display{ID: active.ID, Name: active.Name, Usable: active.Area, Bounds: active.Area}
	if all, err := conn.Monitors(); err == nil {
		for _, m := range all {
			if m.ID == active.ID {
				d.Bounds = m.Area
			}
		}
	}
	return d, nil
}

// Windows lists visible client windows on the current desktop.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	clients, err := conn.Windows()
	if err != nil {
		return nil, err
	}

	currentDesktop, desktopErr := ewmh.CurrentDesktopGet(conn.XUtil)

	out := make([]Window, 0, len(clients))
	for _, c := range clients {
		if desktopErr == nil {
			desktop, err := ewmh.WmDesktopGet(conn.XUtil, c.ID)
			if err == nil && desktop != uint(0xFFFFFFFF) && desktop != currentDesktop {
				continue
			}
		}
		if b.hidden(c.ID) {
			continue
		}
		out = append(out, Window{
			ID:       WindowID(c.ID),
			Class:    c.Class,
			Instance: c.Instance,
			Title:    c.Title,
			Bounds:   c.Geometry,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *LinuxBackend) MoveResize(id WindowID, bounds layout.Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(xproto.Window(id), bounds)
}

func (b *LinuxBackend) hidden(id xproto.Window) bool {
	states, err := ewmh.WmStateGet(b.conn.XUtil, id)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
