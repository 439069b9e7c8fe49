package platform

import (
	"strings"

	"github.com/1broseidon/duoview/internal/layout"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Bounds layout.Rect `json:"bounds"`
	Usable layout.Rect `json:"usable"`
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID       WindowID    `json:"id"`
	Class    string      `json:"class"`
	Instance string      `json:"instance"`
	Title    string      `json:"title"`
	Bounds   layout.Rect `json:"bounds"`
}

// Matches reports whether pattern is a case-insensitive substring of the
// window's class, instance or title. An empty pattern matches nothing.
func (w Window) Matches(pattern string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if p == "" {
		return false
	}
	for _, field := range []string{w.Class, w.Instance, w.Title} {
		if strings.Contains(strings.ToLower(field), p) {
			return true
		}
	}
	return false
}

// Backend abstracts the window-system operations placement needs.
type Backend interface {
	Displays() ([]Display, error)
	ActiveDisplay() (Display, error)
	Windows() ([]Window, error)
	MoveResize(id WindowID, bounds layout.Rect) error
}
