package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/duoview/internal/layout"
)

// Monitor is an active RandR output. Area is in root coordinates and, for the
// monitor returned by ActiveMonitor, already excludes docks and panels.
type Monitor struct {
	ID   int
	Name string
	Area layout.Rect
}

// Monitors lists the enabled RandR outputs.
func (c *Connection) Monitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil || info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("crtc-%d", i)
		if out, err := randr.GetOutputInfo(conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:   i,
			Name: name,
			Area: layout.NewRect(int(info.X), int(info.Y), int(info.Width), int(info.Height)),
		})
	}
	return monitors, nil
}

// ActiveMonitor picks the monitor holding the focused window, then the one
// under the pointer, then the first. Its area is shrunk to the usable work
// area.
func (c *Connection) ActiveMonitor() (*Monitor, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}

	var active *Monitor
	if win, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && win != 0 {
		if geom, err := c.WindowGeometry(win); err == nil {
			active = monitorAt(monitors, geom.Left+geom.Width()/2, geom.Top+geom.Height()/2)
		}
	}
	if active == nil {
		if ptr, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
			active = monitorAt(monitors, int(ptr.RootX), int(ptr.RootY))
		}
	}
	if active == nil {
		active = &monitors[0]
	}

	if usable, ok := c.usableArea(active.Area); ok {
		active.Area = usable
	}
	return active, nil
}

func monitorAt(monitors []Monitor, x, y int) *Monitor {
	for i := range monitors {
		a := monitors[i].Area
		if x >= a.Left && x < a.Right && y >= a.Top && y < a.Bottom {
			return &monitors[i]
		}
	}
	return nil
}

// usableArea removes dock struts from area, falling back to the EWMH work
// area for the current desktop when no dock reserves space.
func (c *Connection) usableArea(area layout.Rect) (layout.Rect, bool) {
	if shrunk, ok := c.applyStruts(area); ok {
		return shrunk, true
	}

	workAreas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workAreas) == 0 {
		return area, false
	}
	desktop := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(workAreas) {
		desktop = int(cur)
	}
	wa := workAreas[desktop]
	isect := intersect(area, layout.NewRect(int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height)))
	if isect.Empty() {
		return area, false
	}
	return isect, true
}

func (c *Connection) applyStruts(area layout.Rect) (layout.Rect, bool) {
	rootW, rootH, err := c.RootSize()
	if err != nil {
		return area, false
	}
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return area, false
	}

	var left, right, top, bottom int
	for _, win := range clients {
		if !c.hasWindowType(win, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}
		sp, err := ewmh.WmStrutPartialGet(c.XUtil, win)
		if err != nil {
			s, err := ewmh.WmStrutGet(c.XUtil, win)
			if err != nil {
				continue
			}
			// Plain struts span the whole edge.
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}
		}

		if sp.Top > 0 {
			r := intersect(area, layout.Rect{Left: int(sp.TopStartX), Top: 0, Right: int(sp.TopEndX) + 1, Bottom: int(sp.Top)})
			top = max(top, r.Height())
		}
		if sp.Bottom > 0 {
			r := intersect(area, layout.Rect{Left: int(sp.BottomStartX), Top: rootH - int(sp.Bottom), Right: int(sp.BottomEndX) + 1, Bottom: rootH})
			bottom = max(bottom, r.Height())
		}
		if sp.Left > 0 {
			r := intersect(area, layout.Rect{Left: 0, Top: int(sp.LeftStartY), Right: int(sp.Left), Bottom: int(sp.LeftEndY) + 1})
			left = max(left, r.Width())
		}
		if sp.Right > 0 {
			r := intersect(area, layout.Rect{Left: rootW - int(sp.Right), Top: int(sp.RightStartY), Right: rootW, Bottom: int(sp.RightEndY) + 1})
			right = max(right, r.Width())
		}
	}

	if left == 0 && right == 0 && top == 0 && bottom == 0 {
		return area, false
	}
	out := layout.Rect{
		Left:   area.Left + left,
		Top:    area.Top + top,
		Right:  max(area.Left+left+1, area.Right-right),
		Bottom: max(area.Top+top+1, area.Bottom-bottom),
	}
	return out, true
}

func intersect(a, b layout.Rect) layout.Rect {
	out := layout.Rect{
		Left:   max(a.Left, b.Left),
		Top:    max(a.Top, b.Top),
		Right:  min(a.Right, b.Right),
		Bottom: min(a.Bottom, b.Bottom),
	}
	if out.Empty() {
		return layout.Rect{}
	}
	return out
}
