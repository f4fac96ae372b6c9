package scene

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// RandomSpheresGrid is the number of small spheres along each side of the grid
const RandomSpheresGrid = 22

// NewRandomSpheresScene creates the cover scene: a field of small random spheres around three large
// feature spheres. The layout depends only on seed.
func NewRandomSpheresScene(seed int64) *Scene {
	sampler := core.NewSeededSampler(seed)

	ground := material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))
	world := geometry.NewShapeList(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, ground))

	glass := material.NewDielectric(1.5)
	clearing := core.NewVec3(4, 0.2, 0)
	half := RandomSpheresGrid / 2

	for a := -half; a < half; a++ {
		for b := -half; b < half; b++ {
			chooseMat := core.Uniform(sampler)
			center := core.NewVec3(
				float64(a)+0.9*core.Uniform(sampler),
				0.2,
				float64(b)+0.9*core.Uniform(sampler),
			)

			// Keep the area around the metal feature sphere clear
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMat < 0.8:
				albedo := core.RandomColor(sampler).MultiplyVec(core.RandomColor(sampler))
				mat = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				albedo := core.RandomColorRange(sampler, 0.5, 1)
				mat = material.NewMetal(albedo, 0.5*core.Uniform(sampler))
			default:
				mat = glass
			}
			world.Add(geometry.NewSphere(center, 0.2, mat))
		}
	}

	world.Add(
		geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, glass),
		geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewColor(0.4, 0.2, 0.1))),
		geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewColor(0.7, 0.6, 0.5), 0)),
	)

	cameraConfig := renderer.CameraConfig{
		LookFrom:      core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20 * math.Pi / 180,
		Aperture:      0.1,
		FocusDistance: 10,
	}

	sampling := renderer.SamplingConfig{
		Width:           600,
		Height:          400,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}

	return NewScene("random-spheres", cameraConfig, sampling, world)
}
