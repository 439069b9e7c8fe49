// Package layout computes where the top and bottom panels of a dual-screen
// device go inside an output window.
//
// Every function here is pure. The only package state is the pair of native
// aspect ratios, fixed at initialization.
package layout

import (
	"fmt"
	"math"
)

// Native panel resolutions.
const (
	TopNativeWidth     = 400
	TopNativeHeight    = 240
	BottomNativeWidth  = 320
	BottomNativeHeight = 240
)

// Native aspect ratios, height over width.
var (
	TopAspect    = float64(TopNativeHeight) / TopNativeWidth
	BottomAspect = float64(BottomNativeHeight) / BottomNativeWidth
)

// Layout is the result of a layout computation.
type Layout struct {
	WindowWidth   int  `json:"window_width"`
	WindowHeight  int  `json:"window_height"`
	TopEnabled    bool `json:"top_enabled"`
	BottomEnabled bool `json:"bottom_enabled"`
	TopScreen     Rect `json:"top_screen"`
	BottomScreen  Rect `json:"bottom_screen"`
}

// ScalingRatio returns the integer factor by which the top panel is enlarged
// relative to its native width.
func (l Layout) ScalingRatio() int {
	return (l.TopScreen.Width()-1)/TopNativeWidth + 1
}

// Offset returns the layout with both panels translated by (x, y), for
// placing it at a window's absolute screen position.
func (l Layout) Offset(x, y int) Layout {
	out := l
	out.TopScreen = l.TopScreen.TranslateX(x).TranslateY(y)
	out.BottomScreen = l.BottomScreen.TranslateX(x).TranslateY(y)
	return out
}

// Panel identifies one of the two device screens.
type Panel string

const (
	PanelTop    Panel = "top"
	PanelBottom Panel = "bottom"
)

// PanelRect is a drawable panel and its placement.
type PanelRect struct {
	Panel Panel `json:"panel"`
	Rect  Rect  `json:"rect"`
}

// Panels returns the enabled panels that have a non-empty area.
func (l Layout) Panels() []PanelRect {
	var out []PanelRect
	if l.TopEnabled && !l.TopScreen.Empty() {
		out = append(out, PanelRect{Panel: PanelTop, Rect: l.TopScreen})
	}
	if l.BottomEnabled && !l.BottomScreen.Empty() {
		out = append(out, PanelRect{Panel: PanelBottom, Rect: l.BottomScreen})
	}
	return out
}

// Compute lays out both panels in a width x height window.
// It panics if either dimension is not positive.
func Compute(width, height int, mode Mode, swapped bool) Layout {
	switch m := mode.(type) {
	case Default:
		return DefaultLayout(width, height, swapped)
	case Single:
		return LargeLayout(width, height, swapped, 0)
	case Large:
		return LargeLayout(width, height, swapped, m.Scale)
	case SideBySide:
		return SideBySideLayout(width, height, swapped)
	case Custom:
		return CustomLayout(width, height, m.Top, m.Bottom)
	case nil:
		panic("layout: nil mode")
	default:
		panic(fmt.Sprintf("layout: unsupported mode %T", mode))
	}
}

// MaxRectangle returns the largest rectangle with the given height/width
// ratio that fits in bound, anchored at the origin.
func MaxRectangle(bound Rect, ratio float64) Rect {
	scale := math.Min(float64(bound.Width()), float64(bound.Height())/ratio)
	return Rect{
		Right:  int(math.Round(scale)),
		Bottom: int(math.Round(scale * ratio)),
	}
}

func requireWindow(width, height int) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("layout: window size must be positive, got %dx%d", width, height))
	}
}

// DefaultLayout stacks the panels vertically, each in its own half of the
// window.
func DefaultLayout(width, height int, swapped bool) Layout {
	requireWindow(width, height)

	res := Layout{WindowWidth: width, WindowHeight: height, TopEnabled: true, BottomEnabled: true}

	// Both panels are first fitted to the same upper half.
	area := Rect{Right: width, Bottom: height / 2}
	top := MaxRectangle(area, TopAspect)
	bot := MaxRectangle(area, BottomAspect)

	windowAspect := float64(height) / float64(width)
	emulationAspect := TopAspect * 2

	if windowAspect < emulationAspect {
		// Pillarbox.
		top = top.TranslateX((area.Width() - top.Width()) / 2)
		bot = bot.TranslateX((area.Width() - bot.Width()) / 2)
	} else {
		// Letterbox. The bottom panel is refitted to the top panel's box so
		// the two share a height; only the panel in the upper half is pushed
		// down to meet the middle.
		bot = MaxRectangle(Rect{Right: top.Width(), Bottom: top.Height()}, BottomAspect)
		bot = bot.TranslateX((top.Width() - bot.Width()) / 2)
		if swapped {
			bot = bot.TranslateY(height/2 - bot.Height())
		} else {
			top = top.TranslateY(height/2 - top.Height())
		}
	}

	if swapped {
		res.TopScreen = top.TranslateY(height / 2)
		res.BottomScreen = bot
	} else {
		res.TopScreen = top
		res.BottomScreen = bot.TranslateY(height / 2)
	}
	return res
}

// SingleLayout shows only the primary panel. It is LargeLayout with a zero
// scale.
func SingleLayout(width, height int, swapped bool) Layout {
	return LargeLayout(width, height, swapped, 0)
}

// LargeLayout fills the window with the primary panel and docks the
// secondary panel, at scale times its native size, in the bottom-right corner.
func LargeLayout(width, height int, swapped bool, scale float64) Layout {
	requireWindow(width, height)

	res := Layout{WindowWidth: width, WindowHeight: height, TopEnabled: true, BottomEnabled: true}

	primaryAspect, secondaryAspect := TopAspect, BottomAspect
	secW, secH := BottomNativeWidth, BottomNativeHeight
	if swapped {
		primaryAspect, secondaryAspect = BottomAspect, TopAspect
		secW, secH = TopNativeWidth, TopNativeHeight
	}
	// NaN, negative and infinite scales all collapse to single-panel.
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 0
	}

	sec := Rect{
		Right:  int(math.Round(float64(secW) * scale)),
		Bottom: int(math.Round(float64(secH) * scale)),
	}
	if scale > 0 {
		sec.Right = max(1, sec.Right)
		sec.Bottom = max(1, sec.Bottom)
		if sec.Width() > width || sec.Height() > height {
			sec = MaxRectangle(Rect{Right: width, Bottom: height}, secondaryAspect)
		}
	}

	var primary Rect
	avail := Rect{Right: max(1, width-sec.Width()), Bottom: height}
	viewport := MaxRectangle(avail, primaryAspect)
	if viewport.Height() == height {
		primary = viewport.
			TranslateX((avail.Width() - viewport.Width()) / 2).
			TranslateY((height - viewport.Height()) / 2)
		sec = sec.TranslateX(width - sec.Width()).TranslateY(height - sec.Height())
	} else {
		above := Rect{Right: width, Bottom: max(1, height-sec.Height())}
		viewport = MaxRectangle(above, primaryAspect)
		group := viewport.Height() + sec.Height()
		primary = viewport.
			TranslateX((width - viewport.Width()) / 2).
			TranslateY((height - group) / 2)
		sec = sec.TranslateX(width - sec.Width()).TranslateY(min(primary.Bottom, height-sec.Height()))
	}

	if swapped && scale == 0 {
		sec = primary
	}

	if swapped {
		res.TopScreen = sec
		res.BottomScreen = primary
	} else {
		res.TopScreen = primary
		res.BottomScreen = sec
	}
	return res
}

// SideBySideLayout places the panels next to each other, sharing one
// bounding box fitted to the window.
func SideBySideLayout(width, height int, swapped bool) Layout {
	requireWindow(width, height)

	res := Layout{WindowWidth: width, WindowHeight: height, TopEnabled: true, BottomEnabled: true}

	emulationAspect := float64(max(TopNativeHeight, BottomNativeHeight)) /
		float64(TopNativeWidth+BottomNativeWidth)
	windowAspect := float64(height) / float64(width)

	window := Rect{Right: width, Bottom: height}
	box := MaxRectangle(window, emulationAspect)
	top := MaxRectangle(box, TopAspect)
	bot := MaxRectangle(box, BottomAspect)

	if windowAspect < emulationAspect {
		shift := (width - box.Width()) / 2
		top = top.TranslateX(shift)
		bot = bot.TranslateX(shift)
	} else {
		shift := (height - box.Height()) / 2
		top = top.TranslateY(shift)
		bot = bot.TranslateY(shift)
	}

	if swapped {
		top = top.TranslateX(bot.Width())
	} else {
		bot = bot.TranslateX(top.Width())
	}

	// Rounding each panel separately can overshoot the right edge by a
	// pixel or two.
	left, right, rightAspect := &top, &bot, BottomAspect
	if swapped {
		left, right, rightAspect = &bot, &top, TopAspect
	}
	if over := right.Right - width; over > 0 {
		shift := min(over, left.Left)
		*left = left.TranslateX(-shift)
		*right = right.TranslateX(-shift)
		if right.Right > width {
			fit := MaxRectangle(Rect{Right: width - right.Left, Bottom: right.Height()}, rightAspect)
			*right = fit.TranslateX(right.Left).TranslateY(right.Top)
		}
	}

	res.TopScreen = top
	res.BottomScreen = bot
	return res
}

// CustomLayout returns the supplied rectangles unchanged.
func CustomLayout(width, height int, top, bottom Rect) Layout {
	requireWindow(width, height)
	return Layout{
		WindowWidth:   width,
		WindowHeight:  height,
		TopEnabled:    true,
		BottomEnabled: true,
		TopScreen:     top,
		BottomScreen:  bottom,
	}
}
