package layout

import (
	"fmt"
	"strings"
)

// Kind names a layout policy without its parameters.
type Kind string

const (
	KindDefault    Kind = "default"      // Panels stacked vertically.
	KindSingle     Kind = "single"       // Primary panel only.
	KindLarge      Kind = "large"        // Primary panel with a native-size inset.
	KindSideBySide Kind = "side-by-side" // Panels next to each other.
	KindCustom     Kind = "custom"       // Rectangles supplied by configuration.
)

var kinds = []Kind{KindDefault, KindSingle, KindLarge, KindSideBySide, KindCustom}

// Kinds returns every layout kind in cycle order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func (k Kind) String() string { return string(k) }

// ParseKind maps a mode name to its Kind. Matching is case-insensitive and
// accepts "side_by_side" and "sidebyside" as spellings of side-by-side.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "default", "stacked":
		return KindDefault, nil
	case "single":
		return KindSingle, nil
	case "large":
		return KindLarge, nil
	case "side-by-side", "side_by_side", "sidebyside":
		return KindSideBySide, nil
	case "custom":
		return KindCustom, nil
	}
	return "", fmt.Errorf("unknown layout mode %q (want one of: %s)", name, joinKinds())
}

// Next returns the kind step positions after k in cycle order, wrapping in
// both directions.
func (k Kind) Next(step int) Kind {
	idx := 0
	for i, candidate := range kinds {
		if candidate == k {
			idx = i
			break
		}
	}
	n := len(kinds)
	idx = ((idx+step)%n + n) % n
	return kinds[idx]
}

func joinKinds() string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Mode selects a layout policy and carries its parameters.
// The set of implementations is closed.
type Mode interface {
	Kind() Kind
	isMode()
}

type Default struct{}

type Single struct{}

// Large renders the secondary panel at Scale times its native size.
type Large struct {
	Scale float64
}

type SideBySide struct{}

// Custom places both panels at caller-supplied rectangles.
type Custom struct {
	Top    Rect
	Bottom Rect
}

func (Default) Kind() Kind    { return KindDefault }
func (Single) Kind() Kind     { return KindSingle }
func (Large) Kind() Kind      { return KindLarge }
func (SideBySide) Kind() Kind { return KindSideBySide }
func (Custom) Kind() Kind     { return KindCustom }

func (Default) isMode()    {}
func (Single) isMode()     {}
func (Large) isMode()      {}
func (SideBySide) isMode() {}
func (Custom) isMode()     {}

// ModeParams carries the parameters a Kind needs to become a Mode.
type ModeParams struct {
	Scale        float64
	CustomTop    Rect
	CustomBottom Rect
}

// ModeFor builds the Mode for k from params.
func ModeFor(k Kind, params ModeParams) (Mode, error) {
	switch k {
	case KindDefault:
		return Default{}, nil
	case KindSingle:
		return Single{}, nil
	case KindLarge:
		return Large{Scale: params.Scale}, nil
	case KindSideBySide:
		return SideBySide{}, nil
	case KindCustom:
		return Custom{Top: params.CustomTop, Bottom: params.CustomBottom}, nil
	}
	return nil, fmt.Errorf("unknown layout mode %q", string(k))
}
