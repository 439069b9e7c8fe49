package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
)

type failingFactory struct{}

func (failingFactory) Create(Config) (Stream, error) { return nil, errors.New("no device") }
func (failingFactory) CreatePreview(Config, int, int) (Stream, error) {
	return nil, errors.New("no device")
}

type fakeGrabber struct {
	img    *image.RGBA
	region layout.Rect
}

func (g *fakeGrabber) CaptureRegion(r layout.Rect) (*image.RGBA, error) {
	g.region = r
	return g.img, nil
}

func TestDefaultRegistry_Names(t *testing.T) {
	got := strings.Join(DefaultRegistry(nil).Names(), ",")
	if got != "blank,pattern,x11" {
		t.Fatalf("Names() = %q", got)
	}
}

func TestRegistry_UnknownFallsBackToBlankWithWarning(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(logging.New(&buf, log.InfoLevel))

	s := r.Create("webcam", Config{Panel: layout.PanelBottom})
	if s.Name() != BlankName {
		t.Fatalf("expected blank stream, got %q", s.Name())
	}
	if w, h := s.Size(); w != layout.BottomNativeWidth || h != layout.BottomNativeHeight {
		t.Fatalf("expected bottom native size, got %dx%d", w, h)
	}
	if !strings.Contains(buf.String(), "webcam") {
		t.Fatalf("expected warning naming provider, got %q", buf.String())
	}
}

func TestRegistry_BlankNameDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(logging.New(&buf, log.InfoLevel))
	r.Create(BlankName, Config{})
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestRegistry_FactoryErrorFallsBack(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(logging.New(&buf, log.InfoLevel))
	r.Register("broken", failingFactory{})

	s := r.CreatePreview("broken", Config{}, 64, 32)
	if s.Name() != BlankName {
		t.Fatalf("expected blank stream, got %q", s.Name())
	}
	if w, h := s.Size(); w != 64 || h != 32 {
		t.Fatalf("expected preview size 64x32, got %dx%d", w, h)
	}
	if !strings.Contains(buf.String(), "no device") {
		t.Fatalf("expected factory error in log, got %q", buf.String())
	}
}

func TestStreams_HaveUniqueIDs(t *testing.T) {
	r := DefaultRegistry(nil)
	a := r.Create(PatternName, Config{})
	b := r.Create(PatternName, Config{})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestBlankFrameIsBlack(t *testing.T) {
	s := DefaultRegistry(nil).CreatePreview(BlankName, Config{}, 8, 4)
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(3, 2)).(color.RGBA); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Fatalf("expected black pixel, got %v", got)
	}
}

func TestPatternFrame(t *testing.T) {
	s := DefaultRegistry(nil).Create(PatternName, Config{Panel: layout.PanelTop})
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != layout.TopNativeWidth || b.Dy() != layout.TopNativeHeight {
		t.Fatalf("unexpected bounds %v", b)
	}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	if got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA); got != white {
		t.Fatalf("expected white border, got %v", got)
	}
	// Second bar is yellow.
	if got := color.RGBAModel.Convert(img.At(90, 100)).(color.RGBA); got != barColors[1] {
		t.Fatalf("expected yellow bar, got %v", got)
	}
}

func TestFrame_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := DefaultRegistry(nil).Create(PatternName, Config{})
	if _, err := s.Frame(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestX11Factory_RequiresRegion(t *testing.T) {
	f := &X11Factory{Grabber: &fakeGrabber{}}
	if _, err := f.Create(Config{Panel: layout.PanelTop}); err == nil {
		t.Fatal("expected error for missing region")
	}
}

func TestX11Stream_ScalesGrabbedRegion(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 24))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	g := &fakeGrabber{img: src}
	f := &X11Factory{Grabber: g}

	s, err := f.CreatePreview(Config{Region: image.Rect(10, 20, 50, 44)}, 80, 48)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if want := (layout.Rect{Left: 10, Top: 20, Right: 50, Bottom: 44}); g.region != want {
		t.Fatalf("grabbed %v, want %v", g.region, want)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 48 {
		t.Fatalf("unexpected bounds %v", b)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Frame(context.Background()); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestNativeSize(t *testing.T) {
	if w, h := NativeSize(Config{Region: image.Rect(0, 0, 10, 20)}); w != 10 || h != 20 {
		t.Fatalf("region size = %dx%d", w, h)
	}
	if w, h := NativeSize(Config{Panel: layout.PanelTop}); w != 400 || h != 240 {
		t.Fatalf("top size = %dx%d", w, h)
	}
}
