package capture

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/google/uuid"
)

// BlankFactory produces solid black frames.
type BlankFactory struct{}

func (BlankFactory) Create(cfg Config) (Stream, error) {
	return newBlankStream(cfg, 0, 0), nil
}

func (BlankFactory) CreatePreview(cfg Config, width, height int) (Stream, error) {
	return newBlankStream(cfg, width, height), nil
}

// baseStream holds the identity and size shared by the in-process providers.
type baseStream struct {
	id     string
	name   string
	width  int
	height int
}

func newBaseStream(name string, cfg Config, width, height int) baseStream {
	if width <= 0 || height <= 0 {
		width, height = NativeSize(cfg)
	}
	return baseStream{
		id:     uuid.NewString(),
		name:   name,
		width:  width,
		height: height,
	}
}

func (s *baseStream) ID() string       { return s.id }
func (s *baseStream) Name() string     { return s.name }
func (s *baseStream) Size() (int, int) { return s.width, s.height }
func (s *baseStream) Close() error     { return nil }

type blankStream struct {
	baseStream
}

func newBlankStream(cfg Config, width, height int) *blankStream {
	return &blankStream{baseStream: newBaseStream(BlankName, cfg, width, height)}
}

func (s *blankStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img, nil
}
