package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/duoview/internal/layout"
)

// Explain returns the effective value at the given dotted path and where it
// came from.
//
// Supported paths include:
//
//	log_level
//	display
//	default_mode
//	swapped
//	large_screen_scale
//	dialog_backend
//	target_window
//	follow_interval
//	screen_padding.top
//	panels.top.match
//	panels.bottom.capture
//	panels.top.region.left
//	custom_layout.bottom.right
//	hotkeys.swap
//	http.listen
//	presets.<name>.mode
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	// A preset field not set in any file comes from its builtin base.
	if name := presetNameFromPath(path); name != "" {
		if base, ok := res.PresetBases[name]; ok {
			return value, Source{Kind: SourceBuiltin, Name: base}, nil
		}
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func presetNameFromPath(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "presets" {
		return ""
	}
	return parts[1]
}

func errUnknownPath(path string) error {
	return fmt.Errorf("unknown path: %s", path)
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, errUnknownPath(path)
		}
		return v, nil
	}

	switch parts[0] {
	case "log_level":
		return leaf(cfg.LogLevel)
	case "display":
		return leaf(cfg.Display)
	case "default_mode":
		return leaf(cfg.DefaultMode)
	case "swapped":
		return leaf(cfg.Swapped)
	case "large_screen_scale":
		return leaf(cfg.LargeScreenScale)
	case "dialog_backend":
		return leaf(cfg.DialogBackend)
	case "target_window":
		return leaf(cfg.TargetWindow)
	case "follow_interval":
		return leaf(cfg.FollowInterval)
	case "screen_padding":
		if len(parts) == 1 {
			return cfg.ScreenPadding, nil
		}
		if len(parts) != 2 {
			return nil, errUnknownPath(path)
		}
		switch parts[1] {
		case "top":
			return cfg.ScreenPadding.Top, nil
		case "bottom":
			return cfg.ScreenPadding.Bottom, nil
		case "left":
			return cfg.ScreenPadding.Left, nil
		case "right":
			return cfg.ScreenPadding.Right, nil
		}
		return nil, errUnknownPath(path)
	case "panels":
		if len(parts) == 1 {
			return cfg.Panels, nil
		}
		if parts[1] != string(layout.PanelTop) && parts[1] != string(layout.PanelBottom) {
			return nil, errUnknownPath(path)
		}
		panel := cfg.Panels.Get(layout.Panel(parts[1]))
		if len(parts) == 2 {
			return panel, nil
		}
		switch parts[2] {
		case "match":
			if len(parts) == 3 {
				return panel.Match, nil
			}
		case "capture":
			if len(parts) == 3 {
				return panel.Capture, nil
			}
		case "region":
			return lookupRect(panel.Region, parts[3:], path)
		}
		return nil, errUnknownPath(path)
	case "custom_layout":
		if len(parts) == 1 {
			return cfg.CustomLayout, nil
		}
		switch parts[1] {
		case "top":
			return lookupRect(cfg.CustomLayout.Top, parts[2:], path)
		case "bottom":
			return lookupRect(cfg.CustomLayout.Bottom, parts[2:], path)
		}
		return nil, errUnknownPath(path)
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		if len(parts) != 2 {
			return nil, errUnknownPath(path)
		}
		switch parts[1] {
		case "place":
			return cfg.Hotkeys.Place, nil
		case "swap":
			return cfg.Hotkeys.Swap, nil
		case "cycle_mode":
			return cfg.Hotkeys.CycleMode, nil
		case "cycle_mode_reverse":
			return cfg.Hotkeys.CycleModeReverse, nil
		}
		return nil, errUnknownPath(path)
	case "http":
		if len(parts) == 2 && parts[1] == "listen" {
			return cfg.HTTP.Listen, nil
		}
		if len(parts) == 1 {
			return cfg.HTTP, nil
		}
		return nil, errUnknownPath(path)
	case "presets":
		if len(parts) == 1 {
			return cfg.Presets, nil
		}
		preset, ok := cfg.Presets[parts[1]]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", parts[1])
		}
		if len(parts) == 2 {
			return preset, nil
		}
		if len(parts) != 3 {
			return nil, errUnknownPath(path)
		}
		switch parts[2] {
		case "mode":
			return preset.Mode, nil
		case "swapped":
			return preset.Swapped, nil
		case "scale":
			return preset.Scale, nil
		}
		return nil, errUnknownPath(path)
	}
	return nil, errUnknownPath(path)
}

func lookupRect(r layout.Rect, rest []string, path string) (any, error) {
	if len(rest) == 0 {
		return r, nil
	}
	if len(rest) != 1 {
		return nil, errUnknownPath(path)
	}
	switch rest[0] {
	case "left":
		return r.Left, nil
	case "top":
		return r.Top, nil
	case "right":
		return r.Right, nil
	case "bottom":
		return r.Bottom, nil
	}
	return nil, errUnknownPath(path)
}
