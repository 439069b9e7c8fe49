package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// UnmarshalTOML accepts the same two shapes from TOML documents.
func (l *IncludeList) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*l = []string{v}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawMargins struct {
	Top    *int `yaml:"top" toml:"top"`
	Bottom *int `yaml:"bottom" toml:"bottom"`
	Left   *int `yaml:"left" toml:"left"`
	Right  *int `yaml:"right" toml:"right"`
}

type RawRect struct {
	Left   *int `yaml:"left" toml:"left"`
	Top    *int `yaml:"top" toml:"top"`
	Right  *int `yaml:"right" toml:"right"`
	Bottom *int `yaml:"bottom" toml:"bottom"`
}

type RawPanel struct {
	Match   *string  `yaml:"match" toml:"match"`
	Capture *string  `yaml:"capture" toml:"capture"`
	Region  *RawRect `yaml:"region" toml:"region"`
}

type RawPanels struct {
	Top    *RawPanel `yaml:"top" toml:"top"`
	Bottom *RawPanel `yaml:"bottom" toml:"bottom"`
}

type RawCustomLayout struct {
	Top    *RawRect `yaml:"top" toml:"top"`
	Bottom *RawRect `yaml:"bottom" toml:"bottom"`
}

type RawHotkeys struct {
	Place            *string `yaml:"place" toml:"place"`
	Swap             *string `yaml:"swap" toml:"swap"`
	CycleMode        *string `yaml:"cycle_mode" toml:"cycle_mode"`
	CycleModeReverse *string `yaml:"cycle_mode_reverse" toml:"cycle_mode_reverse"`
}

type RawHTTP struct {
	Listen *string `yaml:"listen" toml:"listen"`
}

type RawPreset struct {
	Inherits *string  `yaml:"inherits" toml:"inherits"`
	Mode     *string  `yaml:"mode" toml:"mode"`
	Swapped  *bool    `yaml:"swapped" toml:"swapped"`
	Scale    *float64 `yaml:"scale" toml:"scale"`
}

type RawConfig struct {
	Include          IncludeList          `yaml:"include" toml:"include"`
	LogLevel         *string              `yaml:"log_level" toml:"log_level"`
	Display          *string              `yaml:"display" toml:"display"`
	DefaultMode      *string              `yaml:"default_mode" toml:"default_mode"`
	Swapped          *bool                `yaml:"swapped" toml:"swapped"`
	LargeScreenScale *float64             `yaml:"large_screen_scale" toml:"large_screen_scale"`
	DialogBackend    *string              `yaml:"dialog_backend" toml:"dialog_backend"`
	TargetWindow     *string              `yaml:"target_window" toml:"target_window"`
	FollowInterval   *string              `yaml:"follow_interval" toml:"follow_interval"`
	ScreenPadding    *RawMargins          `yaml:"screen_padding" toml:"screen_padding"`
	Panels           *RawPanels           `yaml:"panels" toml:"panels"`
	CustomLayout     *RawCustomLayout     `yaml:"custom_layout" toml:"custom_layout"`
	Hotkeys          *RawHotkeys          `yaml:"hotkeys" toml:"hotkeys"`
	HTTP             *RawHTTP             `yaml:"http" toml:"http"`
	Presets          map[string]RawPreset `yaml:"presets" toml:"presets"`
}

// merge returns c with every field set in overlay replaced. Nested sections
// merge field by field.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.DefaultMode != nil {
		out.DefaultMode = overlay.DefaultMode
	}
	if overlay.Swapped != nil {
		out.Swapped = overlay.Swapped
	}
	if overlay.LargeScreenScale != nil {
		out.LargeScreenScale = overlay.LargeScreenScale
	}
	if overlay.DialogBackend != nil {
		out.DialogBackend = overlay.DialogBackend
	}
	if overlay.TargetWindow != nil {
		out.TargetWindow = overlay.TargetWindow
	}
	if overlay.FollowInterval != nil {
		out.FollowInterval = overlay.FollowInterval
	}

	if overlay.ScreenPadding != nil {
		base := RawMargins{}
		if out.ScreenPadding != nil {
			base = *out.ScreenPadding
		}
		merged := mergeRawMargins(base, *overlay.ScreenPadding)
		out.ScreenPadding = &merged
	}

	if overlay.Panels != nil {
		base := RawPanels{}
		if out.Panels != nil {
			base = *out.Panels
		}
		base.Top = mergeRawPanel(base.Top, overlay.Panels.Top)
		base.Bottom = mergeRawPanel(base.Bottom, overlay.Panels.Bottom)
		out.Panels = &base
	}

	if overlay.CustomLayout != nil {
		base := RawCustomLayout{}
		if out.CustomLayout != nil {
			base = *out.CustomLayout
		}
		base.Top = mergeRawRect(base.Top, overlay.CustomLayout.Top)
		base.Bottom = mergeRawRect(base.Bottom, overlay.CustomLayout.Bottom)
		out.CustomLayout = &base
	}

	if overlay.Hotkeys != nil {
		base := RawHotkeys{}
		if out.Hotkeys != nil {
			base = *out.Hotkeys
		}
		if overlay.Hotkeys.Place != nil {
			base.Place = overlay.Hotkeys.Place
		}
		if overlay.Hotkeys.Swap != nil {
			base.Swap = overlay.Hotkeys.Swap
		}
		if overlay.Hotkeys.CycleMode != nil {
			base.CycleMode = overlay.Hotkeys.CycleMode
		}
		if overlay.Hotkeys.CycleModeReverse != nil {
			base.CycleModeReverse = overlay.Hotkeys.CycleModeReverse
		}
		out.Hotkeys = &base
	}

	if overlay.HTTP != nil && overlay.HTTP.Listen != nil {
		out.HTTP = &RawHTTP{Listen: overlay.HTTP.Listen}
	}

	if overlay.Presets != nil {
		merged := make(map[string]RawPreset, len(out.Presets)+len(overlay.Presets))
		for name, p := range out.Presets {
			merged[name] = p
		}
		for name, p := range overlay.Presets {
			if base, ok := merged[name]; ok {
				p = mergeRawPreset(base, p)
			}
			merged[name] = p
		}
		out.Presets = merged
	}

	return out
}

func mergeRawMargins(base RawMargins, overlay RawMargins) RawMargins {
	out := base
	if overlay.Top != nil {
		out.Top = overlay.Top
	}
	if overlay.Bottom != nil {
		out.Bottom = overlay.Bottom
	}
	if overlay.Left != nil {
		out.Left = overlay.Left
	}
	if overlay.Right != nil {
		out.Right = overlay.Right
	}
	return out
}

func mergeRawRect(base *RawRect, overlay *RawRect) *RawRect {
	if overlay == nil {
		return base
	}
	out := RawRect{}
	if base != nil {
		out = *base
	}
	if overlay.Left != nil {
		out.Left = overlay.Left
	}
	if overlay.Top != nil {
		out.Top = overlay.Top
	}
	if overlay.Right != nil {
		out.Right = overlay.Right
	}
	if overlay.Bottom != nil {
		out.Bottom = overlay.Bottom
	}
	return &out
}

func mergeRawPanel(base *RawPanel, overlay *RawPanel) *RawPanel {
	if overlay == nil {
		return base
	}
	out := RawPanel{}
	if base != nil {
		out = *base
	}
	if overlay.Match != nil {
		out.Match = overlay.Match
	}
	if overlay.Capture != nil {
		out.Capture = overlay.Capture
	}
	out.Region = mergeRawRect(out.Region, overlay.Region)
	return &out
}

func mergeRawPreset(base RawPreset, overlay RawPreset) RawPreset {
	out := base
	if overlay.Inherits != nil {
		out.Inherits = overlay.Inherits
	}
	if overlay.Mode != nil {
		out.Mode = overlay.Mode
	}
	if overlay.Swapped != nil {
		out.Swapped = overlay.Swapped
	}
	if overlay.Scale != nil {
		out.Scale = overlay.Scale
	}
	return out
}
