package capture

import (
	"context"
	"image"
	"image/color"
	"image/draw"
)

const PatternName = "pattern"

// barColors are the 75% SMPTE colour bars, left to right.
var barColors = []color.RGBA{
	{0xbf, 0xbf, 0xbf, 0xff},
	{0xbf, 0xbf, 0x00, 0xff},
	{0x00, 0xbf, 0xbf, 0xff},
	{0x00, 0xbf, 0x00, 0xff},
	{0xbf, 0x00, 0xbf, 0xff},
	{0xbf, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xbf, 0xff},
}

// PatternFactory produces colour bars with a one pixel white border, which
// makes scaling and cropping visible when calibrating a layout.
type PatternFactory struct{}

func (PatternFactory) Create(cfg Config) (Stream, error) {
	return &patternStream{baseStream: newBaseStream(PatternName, cfg, 0, 0)}, nil
}

func (PatternFactory) CreatePreview(cfg Config, width, height int) (Stream, error) {
	return &patternStream{baseStream: newBaseStream(PatternName, cfg, width, height)}, nil
}

type patternStream struct {
	baseStream
}

func (s *patternStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return renderBars(s.width, s.height), nil
}

func renderBars(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	barsBottom := height * 3 / 4
	for i, c := range barColors {
		x0 := width * i / len(barColors)
		x1 := width * (i + 1) / len(barColors)
		draw.Draw(img, image.Rect(x0, 0, x1, barsBottom), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}

	// Grey ramp under the bars.
	for x := 0; x < width; x++ {
		v := uint8(0)
		if width > 1 {
			v = uint8(x * 0xff / (width - 1))
		}
		for y := barsBottom; y < height; y++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 0xff})
		}
	}

	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for x := 0; x < width; x++ {
		img.SetRGBA(x, 0, white)
		img.SetRGBA(x, height-1, white)
	}
	for y := 0; y < height; y++ {
		img.SetRGBA(0, y, white)
		img.SetRGBA(width-1, y, white)
	}
	return img
}
