package renderer

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
)

// mockScene implements Scene for testing
type mockScene struct {
	camera     *Camera
	world      geometry.Shape
	config     SamplingConfig
	background integrator.Background
}

func (s *mockScene) GetCamera() *Camera                { return s.camera }
func (s *mockScene) GetWorld() geometry.Shape          { return s.world }
func (s *mockScene) GetSamplingConfig() SamplingConfig { return s.config }

// backgroundScene also overrides the sky
type backgroundScene struct {
	*mockScene
}

func (s backgroundScene) GetBackground() integrator.Background { return s.background }

// createTestScene creates a small scene with a single matte sphere in front of the camera
func createTestScene(width, height, samples int) *mockScene {
	config := DefaultCameraConfig()
	config.AspectRatio = float64(width) / float64(height)

	sphere := geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewColor(0.5, 0.5, 0.5)))
	return &mockScene{
		camera: NewCamera(config),
		world:  geometry.NewShapeList(sphere),
		config: SamplingConfig{
			Width:           width,
			Height:          height,
			SamplesPerPixel: samples,
			MaxDepth:        10,
		},
	}
}

// panicMaterial fails the first time any ray reaches it
type panicMaterial struct{}

func (panicMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	panic("broken material")
}
