package mcp

import (
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/platform"
)

// ComputeLayoutInput is the input for the compute_layout tool.
type ComputeLayoutInput struct {
	Width   int     `json:"width" jsonschema:"required,Output window width in pixels"`
	Height  int     `json:"height" jsonschema:"required,Output window height in pixels"`
	Mode    string  `json:"mode,omitempty" jsonschema:"Mode or preset name (default: configured default_mode)"`
	Swapped *bool   `json:"swapped,omitempty" jsonschema:"Make the bottom panel primary (default: configured swapped)"`
	Scale   float64 `json:"scale,omitempty" jsonschema:"Inset scale for the large mode, 0 to 4 (default: large_screen_scale)"`
}

// ComputeLayoutOutput is the output for the compute_layout tool.
type ComputeLayoutOutput struct {
	Mode         layout.Kind   `json:"mode"`
	Swapped      bool          `json:"swapped"`
	Scale        float64       `json:"scale"`
	Layout       layout.Layout `json:"layout"`
	ScalingRatio int           `json:"scaling_ratio"`
}

type ListModesInput struct{}

// ListModesOutput is the output for the list_modes tool.
type ListModesOutput struct {
	Modes   []layout.Kind `json:"modes"`
	Presets []PresetInfo  `json:"presets"`
	Default layout.Kind   `json:"default"`
}

type PresetInfo struct {
	Name    string      `json:"name"`
	Mode    layout.Kind `json:"mode"`
	Swapped bool        `json:"swapped"`
	Scale   float64     `json:"scale,omitempty"`
}

type GetStatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Mode          layout.Kind `json:"mode"`
	Swapped       bool        `json:"swapped"`
	Scale         float64     `json:"scale"`
	Preset        string      `json:"preset,omitempty"`
	LastPlacedUTC string      `json:"last_placed_utc,omitempty"`
	CanUndo       bool        `json:"can_undo"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	ConfigPath    string      `json:"config_path"`
}

type PlacePanelsInput struct{}

// PlacementOutput describes the windows moved by a placement.
type PlacementOutput struct {
	Area  layout.Rect  `json:"area"`
	Moves []MoveOutput `json:"moves"`
}

type MoveOutput struct {
	Panel  layout.Panel `json:"panel"`
	Window uint32       `json:"window"`
	Title  string       `json:"title"`
	Rect   layout.Rect  `json:"rect"`
}

// ToggleSwapInput is the input for the toggle_swap tool.
type ToggleSwapInput struct {
	Place bool `json:"place,omitempty" jsonschema:"Move the panel windows after swapping (default: false)"`
}

// SetModeInput is the input for the set_mode tool.
type SetModeInput struct {
	Name  string `json:"name" jsonschema:"required,Mode or preset name"`
	Place bool   `json:"place,omitempty" jsonschema:"Move the panel windows after switching (default: false)"`
}

// StateOutput is the output for toggle_swap and set_mode.
type StateOutput struct {
	Mode      layout.Kind      `json:"mode"`
	Swapped   bool             `json:"swapped"`
	Placement *PlacementOutput `json:"placement,omitempty"`
}

type ListDisplaysInput struct{}

type ListDisplaysOutput struct {
	Displays []platform.Display `json:"displays"`
	Active   int                `json:"active"`
}

type UndoInput struct{}

type UndoOutput struct {
	Restored bool `json:"restored"`
}
