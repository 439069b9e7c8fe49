// Package compose renders both panels into a single image the size of the
// output window.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/1broseidon/duoview/internal/capture"
	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/layout"
)

// Render draws each visible panel's current frame scaled into its rectangle
// over a black window. Panels without a source stay black.
//
// Panels are drawn top first. When the single mode is swapped both
// rectangles coincide and the bottom panel, which is then primary, ends up
// visible.
func Render(ctx context.Context, l layout.Layout, sources map[layout.Panel]capture.Stream) (*image.RGBA, error) {
	if l.WindowWidth <= 0 || l.WindowHeight <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", l.WindowWidth, l.WindowHeight)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, l.WindowWidth, l.WindowHeight))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.RGBA{0, 0, 0, 255}}, image.Point{}, draw.Src)

	for _, pr := range l.Panels() {
		s, ok := sources[pr.Panel]
		if !ok || s == nil {
			continue
		}
		frame, err := s.Frame(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s panel frame: %w", pr.Panel, err)
		}
		dr := image.Rect(pr.Rect.Left, pr.Rect.Top, pr.Rect.Right, pr.Rect.Bottom)
		if frame.Bounds().Size() == dr.Size() {
			draw.Draw(canvas, dr, frame, frame.Bounds().Min, draw.Src)
			continue
		}
		draw.ApproxBiLinear.Scale(canvas, dr, frame, frame.Bounds(), draw.Src, nil)
	}
	return canvas, nil
}

// Source names the capture provider and its settings for one panel.
type Source struct {
	Provider string
	Config   capture.Config
}

// ConfigSources returns the configured source of both panels.
func ConfigSources(cfg *config.Config) map[layout.Panel]Source {
	out := make(map[layout.Panel]Source, 2)
	for _, panel := range []layout.Panel{layout.PanelTop, layout.PanelBottom} {
		pc := cfg.Panels.Get(panel)
		out[panel] = Source{
			Provider: pc.Capture,
			Config: capture.Config{
				Device: cfg.Display,
				Panel:  panel,
				Region: capture.RegionFromRect(pc.Region),
			},
		}
	}
	return out
}

// Preview opens a preview stream per visible panel, sized to its rectangle,
// renders one frame and closes the streams again.
func Preview(ctx context.Context, reg *capture.Registry, l layout.Layout, sources map[layout.Panel]Source) (*image.RGBA, error) {
	streams := make(map[layout.Panel]capture.Stream, 2)
	defer func() {
		for _, s := range streams {
			s.Close()
		}
	}()
	for _, pr := range l.Panels() {
		src, ok := sources[pr.Panel]
		if !ok {
			continue
		}
		cfg := src.Config
		cfg.Panel = pr.Panel
		streams[pr.Panel] = reg.CreatePreview(src.Provider, cfg, pr.Rect.Width(), pr.Rect.Height())
	}
	return Render(ctx, l, streams)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
