package output

import (
	"image"
	"image/color"
)

// Sink receives 8-bit pixels. Row 0 is the top of the image.
type Sink interface {
	SetPixel(x, y int, r, g, b uint8)
}

// RGBASink writes pixels into an in-memory RGBA image
type RGBASink struct {
	Image *image.RGBA
}

// NewRGBASink creates a sink backed by a new opaque-black image of the given size
func NewRGBASink(width, height int) *RGBASink {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return &RGBASink{Image: img}
}

// SetPixel implements Sink
func (s *RGBASink) SetPixel(x, y int, r, g, b uint8) {
	s.Image.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
}
