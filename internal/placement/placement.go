// Package placement moves the two panel windows into the rectangles computed
// by the layout engine for the current mode.
package placement

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/platform"
)

// ErrNoPanelWindows is returned by Apply when neither panel window exists.
var ErrNoPanelWindows = errors.New("no panel windows found")

// ErrNothingToUndo is returned by Undo when no placement is pending undo.
var ErrNothingToUndo = errors.New("nothing to undo")

// Move records one window placed by Apply.
type Move struct {
	Panel  layout.Panel    `json:"panel"`
	Window platform.Window `json:"window"`
	Rect   layout.Rect     `json:"rect"`
}

// Result describes a completed Apply.
type Result struct {
	Area   layout.Rect   `json:"area"`
	Layout layout.Layout `json:"layout"`
	Moves  []Move        `json:"moves"`
}

// Status is the placer state reported to clients.
type Status struct {
	Mode        layout.Kind `json:"mode"`
	Swapped     bool        `json:"swapped"`
	Scale       float64     `json:"scale"`
	Preset      string      `json:"preset,omitempty"`
	LastPlaced  time.Time   `json:"last_placed"`
	LastResult  *Result     `json:"last_result,omitempty"`
	CanUndo     bool        `json:"can_undo"`
	PresetNames []string    `json:"presets"`
}

// Placer holds the current mode and swap state.
type Placer struct {
	mu      sync.Mutex
	backend platform.Backend
	config  *config.Config
	logger  *log.Logger

	mode    layout.Kind
	swapped bool
	scale   float64
	preset  string

	last       *Result
	lastPlaced time.Time
	previous   map[platform.WindowID]layout.Rect
}

// New returns a placer starting in the configured default mode.
func New(backend platform.Backend, cfg *config.Config, logger *log.Logger) *Placer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Placer{
		backend: backend,
		config:  cfg,
		logger:  logger,
		mode:    cfg.DefaultMode,
		swapped: cfg.Swapped,
		scale:   cfg.LargeScreenScale,
	}
}

// Apply computes the layout for the output area and moves the panel
// windows. A panel whose window is missing, or whose rectangle is empty, is
// left alone.
func (p *Placer) Apply() (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := logging.NewProgress(p.logger)
	p.logger.Debug("placement started", "mode", p.mode, "swapped", p.swapped, "scale", p.scale)

	// Step 1: output area
	windows, err := p.backend.Windows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	area, target, err := p.outputAreaLocked(windows)
	if err != nil {
		return nil, err
	}
	if area.Empty() {
		return nil, fmt.Errorf("output area %s is empty", area)
	}
	p.logger.Debug("output area", "area", area)

	// Step 2: padding
	area, err = applyPadding(area, p.config.ScreenPadding)
	if err != nil {
		return nil, err
	}

	// Step 3: layout
	mode, err := layout.ModeFor(p.mode, p.config.ModeParams(p.scale))
	if err != nil {
		return nil, err
	}
	l := layout.Compute(area.Width(), area.Height(), mode, p.swapped).Offset(area.Left, area.Top)
	p.logger.Debug("layout computed", "top", l.TopScreen, "bottom", l.BottomScreen)

	// Step 4: panel windows
	found := make(map[layout.Panel]platform.Window, 2)
	for _, panel := range []layout.Panel{layout.PanelTop, layout.PanelBottom} {
		pattern := p.config.Panels.Get(panel).Match
		w, ok := findWindow(windows, pattern, target, found)
		if !ok {
			p.logger.Debug("no window for panel", "panel", panel, "match", pattern)
			continue
		}
		found[panel] = w
		p.logger.Debug("panel window", "panel", panel, "id", w.ID, "class", w.Class, "title", w.Title)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w (match %q, %q)", ErrNoPanelWindows,
			p.config.Panels.Top.Match, p.config.Panels.Bottom.Match)
	}

	// Step 5: move
	result := &Result{Area: area, Layout: l}
	previous := make(map[platform.WindowID]layout.Rect, len(found))
	for _, pr := range l.Panels() {
		w, ok := found[pr.Panel]
		if !ok {
			continue
		}
		if err := p.backend.MoveResize(w.ID, pr.Rect); err != nil {
			p.logger.Warn("failed to move panel window", "panel", pr.Panel, "id", w.ID, "err", err)
			continue
		}
		previous[w.ID] = w.Bounds
		result.Moves = append(result.Moves, Move{Panel: pr.Panel, Window: w, Rect: pr.Rect})
	}

	p.last = result
	p.lastPlaced = time.Now()
	if len(previous) > 0 {
		p.previous = previous
	}
	progress.Done("placed panels", "moved", len(result.Moves))
	return result, nil
}

// outputAreaLocked returns the target window's geometry when target_window
// is set, otherwise the usable area of the active display.
func (p *Placer) outputAreaLocked(windows []platform.Window) (layout.Rect, platform.WindowID, error) {
	if pattern := p.config.TargetWindow; pattern != "" {
		for _, w := range windows {
			if w.Matches(pattern) {
				p.logger.Debug("target window", "id", w.ID, "title", w.Title, "bounds", w.Bounds)
				return w.Bounds, w.ID, nil
			}
		}
		return layout.Rect{}, 0, fmt.Errorf("target window %q not found", pattern)
	}

	display, err := p.backend.ActiveDisplay()
	if err != nil {
		return layout.Rect{}, 0, fmt.Errorf("active display: %w", err)
	}
	area := display.Usable
	if area.Empty() {
		area = display.Bounds
	}
	p.logger.Debug("active display", "name", display.Name, "bounds", display.Bounds)
	return area, 0, nil
}

func applyPadding(area layout.Rect, pad config.Margins) (layout.Rect, error) {
	out := layout.Rect{
		Left:   area.Left + pad.Left,
		Top:    area.Top + pad.Top,
		Right:  area.Right - pad.Right,
		Bottom: area.Bottom - pad.Bottom,
	}
	if out.Width() < 1 || out.Height() < 1 {
		return layout.Rect{}, fmt.Errorf("screen_padding leaves no usable space: %s", out)
	}
	return out, nil
}

// findWindow returns the first window matching pattern that is neither the
// target window nor already assigned to the other panel.
func findWindow(windows []platform.Window, pattern string, target platform.WindowID, taken map[layout.Panel]platform.Window) (platform.Window, bool) {
	for _, w := range windows {
		if w.ID == target && target != 0 {
			continue
		}
		used := false
		for _, t := range taken {
			if t.ID == w.ID {
				used = true
			}
		}
		if !used && w.Matches(pattern) {
			return w, true
		}
	}
	return platform.Window{}, false
}

// Drifted reports whether the output area differs from the one used by the
// last Apply. It is false before the first Apply.
func (p *Placer) Drifted() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return false, nil
	}
	windows, err := p.backend.Windows()
	if err != nil {
		return false, fmt.Errorf("list windows: %w", err)
	}
	area, _, err := p.outputAreaLocked(windows)
	if err != nil {
		return false, err
	}
	area, err = applyPadding(area, p.config.ScreenPadding)
	if err != nil {
		return false, err
	}
	return area != p.last.Area, nil
}

// Undo moves the panel windows back to where the last Apply found them.
func (p *Placer) Undo() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.previous) == 0 {
		return ErrNothingToUndo
	}
	var errs []error
	for id, r := range p.previous {
		if err := p.backend.MoveResize(id, r); err != nil {
			errs = append(errs, err)
		}
	}
	p.previous = nil
	return errors.Join(errs...)
}

// Preview computes the layout for a width x height window with the current
// state, without touching any window.
func (p *Placer) Preview(width, height int) (layout.Layout, error) {
	if width <= 0 || height <= 0 {
		return layout.Layout{}, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	mode, err := layout.ModeFor(p.mode, p.config.ModeParams(p.scale))
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Compute(width, height, mode, p.swapped), nil
}

// ToggleSwap flips which panel is primary and returns the new state.
func (p *Placer) ToggleSwap() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swapped = !p.swapped
	p.preset = ""
	return p.swapped
}

// SetMode switches to kind, keeping the swap state.
func (p *Placer) SetMode(kind layout.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setKindLocked(kind)
}

func (p *Placer) setKindLocked(kind layout.Kind) {
	p.mode = kind
	p.scale = p.config.LargeScreenScale
	p.preset = ""
}

// CycleMode moves step modes forward (or backward when negative) through
// layout.Kinds and returns the new mode.
func (p *Placer) CycleMode(step int) layout.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setKindLocked(p.mode.Next(step))
	return p.mode
}

// ApplyPreset loads a named preset's mode, swap state and scale.
func (p *Placer) ApplyPreset(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	preset, err := p.config.GetPreset(name)
	if err != nil {
		return err
	}
	p.mode = preset.Mode
	p.swapped = preset.Swapped
	p.scale = preset.Scale
	if preset.Mode == layout.KindLarge && preset.Scale == 0 {
		p.scale = p.config.LargeScreenScale
	}
	p.preset = name
	return nil
}

// Select accepts a mode name or a preset name. Mode names win.
func (p *Placer) Select(name string) error {
	if kind, err := layout.ParseKind(name); err == nil {
		p.SetMode(kind)
		return nil
	}
	if err := p.ApplyPreset(name); err != nil {
		return fmt.Errorf("unknown mode or preset %q", name)
	}
	return nil
}

func (p *Placer) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Mode:        p.mode,
		Swapped:     p.swapped,
		Scale:       p.scale,
		Preset:      p.preset,
		LastPlaced:  p.lastPlaced,
		LastResult:  p.last,
		CanUndo:     len(p.previous) > 0,
		PresetNames: p.config.PresetNames(),
	}
}

// UpdateConfig swaps in a reloaded config. The current mode and swap state
// survive; the scale is re-read unless a preset set it.
func (p *Placer) UpdateConfig(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
	if p.preset != "" {
		if _, err := cfg.GetPreset(p.preset); err == nil {
			return
		}
		p.preset = ""
	}
	p.scale = cfg.LargeScreenScale
}

// Config returns the config currently in use.
func (p *Placer) Config() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}
