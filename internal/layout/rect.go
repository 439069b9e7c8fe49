package layout

import "fmt"

// Rect is an axis-aligned rectangle in window pixel coordinates.
// Right and Bottom are exclusive.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// NewRect builds a Rect from an origin and a size.
func NewRect(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) TranslateX(dx int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top, Right: r.Right + dx, Bottom: r.Bottom}
}

func (r Rect) TranslateY(dy int) Rect {
	return Rect{Left: r.Left, Top: r.Top + dy, Right: r.Right, Bottom: r.Bottom + dy}
}

// Contains reports whether o lies entirely inside r. Edges may touch.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width(), r.Height(), r.Left, r.Top)
}
