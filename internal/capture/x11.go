package capture

import (
	"context"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/x11"
)

const X11Name = "x11"

// Grabber reads a region of the screen.
type Grabber interface {
	CaptureRegion(r layout.Rect) (*image.RGBA, error)
}

// X11Factory grabs Config.Region from the root window. With a nil Grabber
// each stream dials Config.Device (or $DISPLAY) and owns that connection.
type X11Factory struct {
	Grabber Grabber
}

func (f *X11Factory) Create(cfg Config) (Stream, error) {
	return f.open(cfg, 0, 0)
}

func (f *X11Factory) CreatePreview(cfg Config, width, height int) (Stream, error) {
	return f.open(cfg, width, height)
}

func (f *X11Factory) open(cfg Config, width, height int) (Stream, error) {
	if cfg.Region.Empty() {
		return nil, fmt.Errorf("x11 capture for panel %q needs a region", cfg.Panel)
	}
	s := &x11Stream{
		baseStream: newBaseStream(X11Name, cfg, width, height),
		region: layout.Rect{
			Left:   cfg.Region.Min.X,
			Top:    cfg.Region.Min.Y,
			Right:  cfg.Region.Max.X,
			Bottom: cfg.Region.Max.Y,
		},
		grabber: f.Grabber,
	}
	if s.grabber == nil {
		conn, err := x11.NewConnection(cfg.Device)
		if err != nil {
			return nil, err
		}
		s.grabber = conn
		s.conn = conn
	}
	return s, nil
}

type x11Stream struct {
	baseStream
	region  layout.Rect
	grabber Grabber

	mu   sync.Mutex
	conn *x11.Connection
}

// Frame grabs the region and scales it to the stream size.
func (s *x11Stream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grabber == nil {
		return nil, fmt.Errorf("x11 stream %s is closed", s.id)
	}

	src, err := s.grabber.CaptureRegion(s.region)
	if err != nil {
		return nil, err
	}
	if src.Bounds().Dx() == s.width && src.Bounds().Dy() == s.height {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func (s *x11Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.grabber = nil
	return nil
}
