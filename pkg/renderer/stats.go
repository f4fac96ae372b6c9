package renderer

import "github.com/df07/go-pathtracer/pkg/core"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Target samples per pixel
	MinSamples     int     // Minimum samples taken by any pixel
	MaxSamplesUsed int     // Maximum samples taken by any pixel
}

// PixelStats accumulates linear color samples for a single pixel
type PixelStats struct {
	ColorAccum  core.Color // Sum of all samples
	SampleCount int        // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Color) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color, or black before any sample
func (ps *PixelStats) GetColor() core.Color {
	if ps.SampleCount == 0 {
		return core.Color{}
	}
	return ps.ColorAccum.Divide(float64(ps.SampleCount))
}

// newRenderStats starts statistics for a region of pixelCount pixels
func newRenderStats(pixelCount, targetSamples int) RenderStats {
	return RenderStats{
		TotalPixels: pixelCount,
		MaxSamples:  targetSamples,
		MinSamples:  -1,
	}
}

// add records the sample count of one pixel
func (s *RenderStats) add(samples int) {
	s.TotalSamples += samples
	if s.MinSamples < 0 || samples < s.MinSamples {
		s.MinSamples = samples
	}
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, samples)
}

// finalize computes the averages once every pixel was recorded
func (s *RenderStats) finalize() {
	if s.MinSamples < 0 {
		s.MinSamples = 0
	}
	if s.TotalPixels > 0 {
		s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
	}
}
