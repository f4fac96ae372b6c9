package renderer

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Quantizer converts gamma-corrected channels in [0,1] to 8-bit values
type Quantizer struct {
	Scale float64 // Multiplier applied before conversion
	Round bool    // Round to nearest instead of truncating
}

// DefaultQuantizer scales by 256 and truncates, clamping 1.0 to 255
func DefaultQuantizer() Quantizer {
	return Quantizer{Scale: 256}
}

// Channel quantizes one channel. Negative and NaN values map to 0.
func (q Quantizer) Channel(c float64) uint8 {
	v := c * q.Scale
	if q.Round {
		v = math.Round(v)
	}
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// RGB quantizes all three channels of a color
func (q Quantizer) RGB(c core.Color) (r, g, b uint8) {
	return q.Channel(c.X), q.Channel(c.Y), q.Channel(c.Z)
}
