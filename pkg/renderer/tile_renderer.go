package renderer

import (
	"image"

	"github.com/df07/go-pathtracer/pkg/core"
)

// TileRenderer renders rectangular regions of the image into shared pixel statistics
type TileRenderer struct {
	raytracer *Raytracer
}

// NewTileRenderer creates a tile renderer for the raytracer's scene
func NewTileRenderer(raytracer *Raytracer) *TileRenderer {
	return &TileRenderer{raytracer: raytracer}
}

// RenderTileBounds takes samples for every pixel within bounds until each pixel holds
// targetSamples samples in total
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler, targetSamples int) RenderStats {
	stats := newRenderStats(bounds.Dx()*bounds.Dy(), targetSamples)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ps := &pixelStats[y][x]
			initial := ps.SampleCount
			for ps.SampleCount < targetSamples {
				ps.AddSample(tr.raytracer.Sample(x, y, sampler))
			}
			stats.add(ps.SampleCount - initial)
		}
	}

	stats.finalize()
	return stats
}
