package config

import "github.com/1broseidon/duoview/internal/layout"

// DefaultBuiltinPreset is the base for user presets that neither share a
// builtin name nor declare inherits.
const DefaultBuiltinPreset = "stacked"

// BuiltinPresets returns the preset library available without any
// configuration.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"stacked":         {Mode: layout.KindDefault},
		"stacked-swapped": {Mode: layout.KindDefault, Swapped: true},
		"single":          {Mode: layout.KindSingle},
		"single-bottom":   {Mode: layout.KindSingle, Swapped: true},
		"large":           {Mode: layout.KindLarge, Scale: 1},
		"large-bottom":    {Mode: layout.KindLarge, Swapped: true, Scale: 1},
		"wide":            {Mode: layout.KindSideBySide},
		"custom":          {Mode: layout.KindCustom},
	}
}
