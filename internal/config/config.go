package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/duoview/internal/layout"
)

// Margins shrinks the output area before layout.
type Margins struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// PanelConfig says how to find a panel's window and where its frames come
// from.
type PanelConfig struct {
	// Match is a case-insensitive substring of the window's WM_CLASS or title.
	Match string `yaml:"match"`
	// Capture names a capture provider (blank, pattern, x11).
	Capture string `yaml:"capture"`
	// Region is the root-window area the x11 provider grabs.
	Region layout.Rect `yaml:"region,omitempty"`
}

type Panels struct {
	Top    PanelConfig `yaml:"top"`
	Bottom PanelConfig `yaml:"bottom"`
}

// Get returns the configuration for panel p.
func (p Panels) Get(panel layout.Panel) PanelConfig {
	if panel == layout.PanelBottom {
		return p.Bottom
	}
	return p.Top
}

// CustomLayout holds the rectangles used by the custom mode, relative to the
// output window.
type CustomLayout struct {
	Top    layout.Rect `yaml:"top"`
	Bottom layout.Rect `yaml:"bottom"`
}

type Hotkeys struct {
	Place            string `yaml:"place"`
	Swap             string `yaml:"swap"`
	CycleMode        string `yaml:"cycle_mode"`
	CycleModeReverse string `yaml:"cycle_mode_reverse"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Preset is a named combination of mode, swap state and inset scale.
type Preset struct {
	Mode    layout.Kind `yaml:"mode"`
	Swapped bool        `yaml:"swapped"`
	Scale   float64     `yaml:"scale,omitempty"`
}

const (
	MinLargeScreenScale = 0.0
	MaxLargeScreenScale = 4.0

	// MinFollowInterval bounds how often the daemon polls for a moved
	// output area.
	MinFollowInterval = 100 * time.Millisecond
)

type Config struct {
	LogLevel         string            `yaml:"log_level"`
	Display          string            `yaml:"display,omitempty"`
	DefaultMode      layout.Kind       `yaml:"default_mode"`
	Swapped          bool              `yaml:"swapped"`
	LargeScreenScale float64           `yaml:"large_screen_scale"`
	DialogBackend    string            `yaml:"dialog_backend"`
	TargetWindow     string            `yaml:"target_window,omitempty"`
	FollowInterval   time.Duration     `yaml:"follow_interval,omitempty"`
	ScreenPadding    Margins           `yaml:"screen_padding"`
	Panels           Panels            `yaml:"panels"`
	CustomLayout     CustomLayout      `yaml:"custom_layout"`
	Hotkeys          Hotkeys           `yaml:"hotkeys"`
	HTTP             HTTPConfig        `yaml:"http"`
	Presets          map[string]Preset `yaml:"presets"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		DefaultMode:      layout.KindDefault,
		LargeScreenScale: 1.0,
		DialogBackend:    "auto",
		Panels: Panels{
			Top:    PanelConfig{Match: "duoview-top", Capture: "pattern"},
			Bottom: PanelConfig{Match: "duoview-bottom", Capture: "pattern"},
		},
		CustomLayout: CustomLayout{
			Top:    layout.Rect{Left: 0, Top: 0, Right: layout.TopNativeWidth, Bottom: layout.TopNativeHeight},
			Bottom: layout.Rect{Left: 40, Top: 240, Right: 360, Bottom: 480},
		},
		Hotkeys: Hotkeys{
			Place:            "Mod4-Mod1-d",
			Swap:             "Mod4-Mod1-s",
			CycleMode:        "Mod4-Mod1-bracketright",
			CycleModeReverse: "Mod4-Mod1-bracketleft",
		},
		HTTP:    HTTPConfig{Listen: "127.0.0.1:7480"},
		Presets: BuiltinPresets(),
	}
}

// ModeParams returns the parameters needed to turn a kind into a layout.Mode.
func (c *Config) ModeParams(scale float64) layout.ModeParams {
	return layout.ModeParams{
		Scale:        scale,
		CustomTop:    c.CustomLayout.Top,
		CustomBottom: c.CustomLayout.Bottom,
	}
}

// Mode builds the layout.Mode for k using this config's scale and custom
// rectangles.
func (c *Config) Mode(k layout.Kind) (layout.Mode, error) {
	return layout.ModeFor(k, c.ModeParams(c.LargeScreenScale))
}

// GetPreset returns a preset by name.
func (c *Config) GetPreset(name string) (Preset, error) {
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q not found (available: %s)", name, strings.Join(c.PresetNames(), ", "))
	}
	return p, nil
}

// Selection is a resolved mode, swap state and inset scale.
type Selection struct {
	Mode    layout.Kind
	Swapped bool
	Scale   float64
}

// Resolve maps a mode name or a preset name to a Selection. A mode name
// keeps swapped and takes the configured large_screen_scale; a preset sets
// all three. Mode names win over presets of the same name.
func (c *Config) Resolve(name string, swapped bool) (Selection, error) {
	if kind, err := layout.ParseKind(name); err == nil {
		return Selection{Mode: kind, Swapped: swapped, Scale: c.LargeScreenScale}, nil
	}
	p, ok := c.Presets[name]
	if !ok {
		return Selection{}, fmt.Errorf("unknown mode or preset %q", name)
	}
	sel := Selection{Mode: p.Mode, Swapped: p.Swapped, Scale: p.Scale}
	if p.Mode == layout.KindLarge && p.Scale == 0 {
		sel.Scale = c.LargeScreenScale
	}
	return sel, nil
}

// PresetNames returns preset names in sorted order.
func (c *Config) PresetNames() []string {
	return sortedKeys(c.Presets)
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	save.Presets = presetsForSave(c.Presets)

	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// presetsForSave drops presets identical to a builtin so saved files only
// carry user changes.
func presetsForSave(presets map[string]Preset) map[string]Preset {
	builtin := BuiltinPresets()
	out := make(map[string]Preset)
	for name, p := range presets {
		if b, ok := builtin[name]; ok && b == p {
			continue
		}
		out[name] = p
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if _, err := layout.ParseKind(string(c.DefaultMode)); err != nil {
		return &ValidationError{Path: "default_mode", Err: err}
	}
	if err := ValidateScale(c.LargeScreenScale); err != nil {
		return &ValidationError{Path: "large_screen_scale", Err: err}
	}
	switch c.DialogBackend {
	case "auto", "rofi", "fuzzel", "wofi", "dmenu", "log":
	default:
		return &ValidationError{Path: "dialog_backend", Err: fmt.Errorf("dialog_backend must be one of: auto, rofi, fuzzel, wofi, dmenu, log")}
	}
	if c.ScreenPadding.Top < 0 || c.ScreenPadding.Bottom < 0 || c.ScreenPadding.Left < 0 || c.ScreenPadding.Right < 0 {
		return &ValidationError{Path: "screen_padding", Err: fmt.Errorf("screen_padding values must be >= 0")}
	}
	if err := validateRect(c.CustomLayout.Top); err != nil {
		return &ValidationError{Path: "custom_layout.top", Err: err}
	}
	if err := validateRect(c.CustomLayout.Bottom); err != nil {
		return &ValidationError{Path: "custom_layout.bottom", Err: err}
	}
	for _, panel := range []layout.Panel{layout.PanelTop, layout.PanelBottom} {
		pc := c.Panels.Get(panel)
		if strings.TrimSpace(pc.Capture) == "" {
			return &ValidationError{Path: "panels." + string(panel) + ".capture", Err: fmt.Errorf("capture provider is required")}
		}
		if pc.Region != (layout.Rect{}) {
			if err := validateRect(pc.Region); err != nil {
				return &ValidationError{Path: "panels." + string(panel) + ".region", Err: err}
			}
		}
	}
	if c.FollowInterval != 0 && c.FollowInterval < MinFollowInterval {
		return &ValidationError{Path: "follow_interval", Err: fmt.Errorf("follow_interval must be 0 (off) or at least %s", MinFollowInterval)}
	}
	if strings.TrimSpace(c.HTTP.Listen) == "" {
		return &ValidationError{Path: "http.listen", Err: fmt.Errorf("http.listen must not be empty")}
	}
	if len(c.Presets) == 0 {
		return &ValidationError{Path: "presets", Err: fmt.Errorf("presets must not be empty")}
	}
	for _, name := range sortedKeys(c.Presets) {
		if err := validatePreset(c.Presets[name]); err != nil {
			return &ValidationError{Path: "presets." + name, Err: err}
		}
	}
	return nil
}

// ValidateScale reports whether scale is a usable large-screen scale.
// NaN and infinities are rejected along with out-of-range values.
func ValidateScale(scale float64) error {
	if !(scale >= MinLargeScreenScale && scale <= MaxLargeScreenScale) {
		return fmt.Errorf("scale must be between %.0f and %.0f, got %g", MinLargeScreenScale, MaxLargeScreenScale, scale)
	}
	return nil
}

func validateRect(r layout.Rect) error {
	if r.Left < 0 || r.Top < 0 {
		return fmt.Errorf("left and top must be >= 0, got %d,%d", r.Left, r.Top)
	}
	if r.Right <= r.Left || r.Bottom <= r.Top {
		return fmt.Errorf("right/bottom must exceed left/top, got %+v", r)
	}
	return nil
}

func validatePreset(p Preset) error {
	if _, err := layout.ParseKind(string(p.Mode)); err != nil {
		return err
	}
	return ValidateScale(p.Scale)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
