package renderer

import (
	"image"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/output"
)

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width in pixels
	Height          int // Image height in pixels
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 50,
		MaxDepth:        50,
	}
}

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetWorld() geometry.Shape
	GetSamplingConfig() SamplingConfig
}

// BackgroundScene is implemented by scenes that override the default sky gradient
type BackgroundScene interface {
	GetBackground() integrator.Background
}

// Raytracer computes pixel colors for a scene
type Raytracer struct {
	camera     *Camera
	world      geometry.Shape
	integrator integrator.Integrator
	config     SamplingConfig
	quantizer  Quantizer
	random     *rand.Rand
}

// NewRaytracer creates a new raytracer using the scene's sampling configuration
func NewRaytracer(scene Scene) *Raytracer {
	var background integrator.Background
	if bs, ok := scene.(BackgroundScene); ok {
		background = bs.GetBackground()
	}

	return &Raytracer{
		camera:     scene.GetCamera(),
		world:      scene.GetWorld(),
		integrator: integrator.NewPathTracingIntegrator(background),
		config:     scene.GetSamplingConfig(),
		quantizer:  DefaultQuantizer(),
		random:     rand.New(rand.NewSource(42)), // Deterministic for testing
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config SamplingConfig) {
	rt.config = config
}

// MergeSamplingConfig updates only the non-zero fields of the sampling configuration
func (rt *Raytracer) MergeSamplingConfig(updates SamplingConfig) {
	if updates.Width != 0 {
		rt.config.Width = updates.Width
	}
	if updates.Height != 0 {
		rt.config.Height = updates.Height
	}
	if updates.SamplesPerPixel != 0 {
		rt.config.SamplesPerPixel = updates.SamplesPerPixel
	}
	if updates.MaxDepth != 0 {
		rt.config.MaxDepth = updates.MaxDepth
	}
}

// SetQuantizer changes how final colors are converted to 8-bit channels
func (rt *Raytracer) SetQuantizer(q Quantizer) {
	rt.quantizer = q
}

// SetSeed reseeds the generator used by RenderPass
func (rt *Raytracer) SetSeed(seed int64) {
	rt.random = rand.New(rand.NewSource(seed))
}

// GetSamplingConfig returns the current sampling configuration
func (rt *Raytracer) GetSamplingConfig() SamplingConfig {
	return rt.config
}

// Sample traces one jittered primary ray through pixel (x, y), where y = 0 is the top row,
// and returns its linear color
func (rt *Raytracer) Sample(x, y int, sampler core.Sampler) core.Color {
	// The camera's viewport is measured from the bottom, so invert the row
	row := rt.config.Height - 1 - y

	jitter := sampler.Get2D()
	s := (float64(x) + jitter.X) / float64(rt.config.Width)
	t := (float64(row) + jitter.Y) / float64(rt.config.Height)

	ray := rt.camera.GetRay(s, t, sampler)
	return rt.integrator.RayColor(ray, rt.world, sampler, rt.config.MaxDepth)
}

// SamplePixel averages SamplesPerPixel samples for pixel (x, y) and applies gamma 2.
// With zero samples the pixel is black.
func (rt *Raytracer) SamplePixel(x, y int, sampler core.Sampler) core.Color {
	var ps PixelStats
	for ps.SampleCount < rt.config.SamplesPerPixel {
		ps.AddSample(rt.Sample(x, y, sampler))
	}
	return GammaCorrect(ps.GetColor())
}

// GammaCorrect applies gamma 2 (per-channel square root) to a linear color
func GammaCorrect(c core.Color) core.Color {
	return c.Sqrt()
}

// RenderPass renders the whole image sequentially into the sink, top row first
func (rt *Raytracer) RenderPass(sink output.Sink) RenderStats {
	sampler := core.NewRandomSampler(rt.random)
	stats := newRenderStats(rt.config.Width*rt.config.Height, rt.config.SamplesPerPixel)

	for y := 0; y < rt.config.Height; y++ {
		for x := 0; x < rt.config.Width; x++ {
			color := rt.SamplePixel(x, y, sampler)
			r, g, b := rt.quantizer.RGB(color)
			sink.SetPixel(x, y, r, g, b)
			stats.add(rt.config.SamplesPerPixel)
		}
	}

	stats.finalize()
	return stats
}

// writePixels quantizes the averaged pixel stats into the sink
func (rt *Raytracer) writePixels(bounds image.Rectangle, pixelStats [][]PixelStats, sink output.Sink) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rt.quantizer.RGB(GammaCorrect(pixelStats[y][x].GetColor()))
			sink.SetPixel(x-bounds.Min.X, y-bounds.Min.Y, r, g, b)
		}
	}
}
