package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/duoview/internal/layout"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" {
		if e.Source.Line > 0 {
			return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Source.File, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig and returns the
// result together with the builtin each preset was derived from.
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.DefaultMode != nil {
		kind, err := layout.ParseKind(*raw.DefaultMode)
		if err != nil {
			return nil, nil, &ValidationError{Path: "default_mode", Err: err}
		}
		cfg.DefaultMode = kind
	}
	if raw.Swapped != nil {
		cfg.Swapped = *raw.Swapped
	}
	if raw.LargeScreenScale != nil {
		cfg.LargeScreenScale = *raw.LargeScreenScale
	}
	if raw.DialogBackend != nil {
		cfg.DialogBackend = strings.ToLower(strings.TrimSpace(*raw.DialogBackend))
	}
	if raw.TargetWindow != nil {
		cfg.TargetWindow = *raw.TargetWindow
	}
	if raw.FollowInterval != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.FollowInterval))
		if err != nil {
			return nil, nil, &ValidationError{Path: "follow_interval", Err: err}
		}
		cfg.FollowInterval = d
	}

	if raw.ScreenPadding != nil {
		cfg.ScreenPadding = Margins{
			Top:    derefInt(raw.ScreenPadding.Top, cfg.ScreenPadding.Top),
			Bottom: derefInt(raw.ScreenPadding.Bottom, cfg.ScreenPadding.Bottom),
			Left:   derefInt(raw.ScreenPadding.Left, cfg.ScreenPadding.Left),
			Right:  derefInt(raw.ScreenPadding.Right, cfg.ScreenPadding.Right),
		}
	}

	if raw.Panels != nil {
		cfg.Panels.Top = applyRawPanel(cfg.Panels.Top, raw.Panels.Top)
		cfg.Panels.Bottom = applyRawPanel(cfg.Panels.Bottom, raw.Panels.Bottom)
	}

	if raw.CustomLayout != nil {
		cfg.CustomLayout.Top = applyRawRect(cfg.CustomLayout.Top, raw.CustomLayout.Top)
		cfg.CustomLayout.Bottom = applyRawRect(cfg.CustomLayout.Bottom, raw.CustomLayout.Bottom)
	}

	if raw.Hotkeys != nil {
		cfg.Hotkeys.Place = derefString(raw.Hotkeys.Place, cfg.Hotkeys.Place)
		cfg.Hotkeys.Swap = derefString(raw.Hotkeys.Swap, cfg.Hotkeys.Swap)
		cfg.Hotkeys.CycleMode = derefString(raw.Hotkeys.CycleMode, cfg.Hotkeys.CycleMode)
		cfg.Hotkeys.CycleModeReverse = derefString(raw.Hotkeys.CycleModeReverse, cfg.Hotkeys.CycleModeReverse)
	}

	if raw.HTTP != nil && raw.HTTP.Listen != nil {
		cfg.HTTP.Listen = *raw.HTTP.Listen
	}

	presetBases, err := applyPresets(cfg, raw)
	if err != nil {
		return nil, nil, err
	}

	return cfg, presetBases, nil
}

func applyRawPanel(base PanelConfig, raw *RawPanel) PanelConfig {
	if raw == nil {
		return base
	}
	out := base
	out.Match = derefString(raw.Match, out.Match)
	out.Capture = derefString(raw.Capture, out.Capture)
	out.Region = applyRawRect(out.Region, raw.Region)
	return out
}

func applyRawRect(base layout.Rect, raw *RawRect) layout.Rect {
	if raw == nil {
		return base
	}
	return layout.Rect{
		Left:   derefInt(raw.Left, base.Left),
		Top:    derefInt(raw.Top, base.Top),
		Right:  derefInt(raw.Right, base.Right),
		Bottom: derefInt(raw.Bottom, base.Bottom),
	}
}

func applyPresets(cfg *Config, raw RawConfig) (map[string]string, error) {
	builtin := BuiltinPresets()

	cfg.Presets = make(map[string]Preset, len(builtin)+len(raw.Presets))
	bases := make(map[string]string, len(builtin)+len(raw.Presets))
	for name, p := range builtin {
		cfg.Presets[name] = p
		bases[name] = name
	}

	for _, name := range sortedKeys(raw.Presets) {
		patch := raw.Presets[name]
		baseName, base, err := selectPresetBase(name, patch, builtin)
		if err != nil {
			return nil, err
		}
		merged, err := mergePresetPatch(base, patch, cfg.LargeScreenScale)
		if err != nil {
			return nil, &ValidationError{Path: "presets." + name, Err: err}
		}
		cfg.Presets[name] = merged
		bases[name] = baseName
	}
	return bases, nil
}

func selectPresetBase(name string, patch RawPreset, builtin map[string]Preset) (string, Preset, error) {
	ref := ""
	if patch.Inherits != nil {
		ref = strings.TrimSpace(*patch.Inherits)
	}

	baseName := DefaultBuiltinPreset
	if _, ok := builtin[name]; ok {
		baseName = name
	}

	if ref != "" {
		const prefix = "builtin:"
		if !strings.HasPrefix(ref, prefix) {
			return "", Preset{}, &ValidationError{
				Path: "presets." + name + ".inherits",
				Err:  fmt.Errorf("inherits must be %q-prefixed (builtin-only), got %q", prefix, ref),
			}
		}
		baseName = strings.TrimSpace(strings.TrimPrefix(ref, prefix))
	}

	base, ok := builtin[baseName]
	if !ok {
		return "", Preset{}, &ValidationError{
			Path: "presets." + name + ".inherits",
			Err:  fmt.Errorf("unknown builtin preset %q", baseName),
		}
	}
	return baseName, base, nil
}

func mergePresetPatch(base Preset, patch RawPreset, defaultScale float64) (Preset, error) {
	out := base
	if patch.Mode != nil {
		kind, err := layout.ParseKind(*patch.Mode)
		if err != nil {
			return Preset{}, err
		}
		out.Mode = kind
	}
	if patch.Swapped != nil {
		out.Swapped = *patch.Swapped
	}
	if patch.Scale != nil {
		out.Scale = *patch.Scale
	} else if out.Mode == layout.KindLarge && out.Scale == 0 {
		out.Scale = defaultScale
	}
	if out.Mode != layout.KindLarge && patch.Scale == nil {
		out.Scale = 0
	}
	return out, validatePreset(out)
}

func derefInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func derefString(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
