package scene

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// NewDefaultScene creates the three-sphere scene: glass, matte and fuzzed metal on a large ground sphere
func NewDefaultScene() *Scene {
	cameraConfig := renderer.CameraConfig{
		LookFrom:    core.NewVec3(-2, 2, 1),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40 * math.Pi / 180, // Narrower field of view for focus effect
		Aperture:    0.1,
		// Focus distance 0 focuses on the center sphere
	}

	ground := material.NewLambertian(core.NewColor(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewColor(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	gold := material.NewMetal(core.NewColor(0.8, 0.6, 0.2), 0.3)

	world := geometry.NewShapeList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, center),
		// Hollow glass: an air bubble (ir 1/1.5) inside the glass sphere
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.4, material.NewDielectric(1/1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold),
	)

	return NewScene("default", cameraConfig, renderer.DefaultSamplingConfig(), world)
}

// NewSingleSphereScene creates one matte sphere in front of a pinhole camera at the origin
func NewSingleSphereScene() *Scene {
	matte := material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))

	world := geometry.NewShapeList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, matte),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, matte),
	)

	return NewScene("single-sphere", renderer.DefaultCameraConfig(), renderer.DefaultSamplingConfig(), world)
}
