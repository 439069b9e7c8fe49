// Package capture provides named frame sources for the two panels.
//
// Providers register a Factory under a name. Asking the Registry for a name
// that is not registered, or a factory that fails, yields a blank stream so a
// misconfigured panel renders black instead of aborting.
package capture

import (
	"context"
	"image"

	"github.com/1broseidon/duoview/internal/layout"
)

// Stream is an open frame source.
type Stream interface {
	ID() string
	Name() string
	Size() (width, height int)
	// Frame returns the current frame. The image is owned by the caller.
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Config is the provider-specific configuration for one stream.
type Config struct {
	// Device names the source, e.g. an X display for the x11 provider.
	Device  string
	Panel   layout.Panel
	Region  image.Rectangle
	Options map[string]string
}

// Factory creates streams for one provider.
type Factory interface {
	Create(cfg Config) (Stream, error)
	// CreatePreview creates a stream whose frames are width x height.
	CreatePreview(cfg Config, width, height int) (Stream, error)
}

// NativeSize returns the native resolution of panel, or of region when it is
// not empty.
func NativeSize(cfg Config) (int, int) {
	if !cfg.Region.Empty() {
		return cfg.Region.Dx(), cfg.Region.Dy()
	}
	if cfg.Panel == layout.PanelBottom {
		return layout.BottomNativeWidth, layout.BottomNativeHeight
	}
	return layout.TopNativeWidth, layout.TopNativeHeight
}

// RegionFromRect converts a config rectangle to an image.Rectangle.
func RegionFromRect(r layout.Rect) image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}
