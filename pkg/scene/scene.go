package scene

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	Camera         *renderer.Camera
	CameraConfig   renderer.CameraConfig
	World          *geometry.ShapeList // Objects in the scene
	SamplingConfig renderer.SamplingConfig
	Background     integrator.Background // Sky seen by escaping rays, nil for the default gradient
}

// NewScene builds a scene from its parts, deriving the camera aspect ratio from the image size
func NewScene(name string, cameraConfig renderer.CameraConfig, sampling renderer.SamplingConfig, world *geometry.ShapeList) *Scene {
	s := &Scene{
		Name:           name,
		CameraConfig:   cameraConfig,
		World:          world,
		SamplingConfig: sampling,
	}
	s.updateCamera()
	return s
}

// GetCamera returns the scene's camera
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetWorld returns the scene's shapes as a single hittable
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// GetSamplingConfig returns the scene's sampling configuration
func (s *Scene) GetSamplingConfig() renderer.SamplingConfig {
	return s.SamplingConfig
}

// GetBackground returns the sky gradient for escaping rays
func (s *Scene) GetBackground() integrator.Background {
	if s.Background == nil {
		return integrator.DefaultBackground()
	}
	return s.Background
}

// ApplySamplingOverrides replaces the non-zero fields of the sampling configuration.
// A resolution change rebuilds the camera with the new aspect ratio.
func (s *Scene) ApplySamplingOverrides(overrides renderer.SamplingConfig) error {
	if overrides.Width < 0 || overrides.Height < 0 || overrides.SamplesPerPixel < 0 || overrides.MaxDepth < 0 {
		return fmt.Errorf("sampling overrides must not be negative: %+v", overrides)
	}

	resized := false
	if overrides.Width > 0 && overrides.Width != s.SamplingConfig.Width {
		s.SamplingConfig.Width = overrides.Width
		resized = true
	}
	if overrides.Height > 0 && overrides.Height != s.SamplingConfig.Height {
		s.SamplingConfig.Height = overrides.Height
		resized = true
	}
	if overrides.SamplesPerPixel > 0 {
		s.SamplingConfig.SamplesPerPixel = overrides.SamplesPerPixel
	}
	if overrides.MaxDepth > 0 {
		s.SamplingConfig.MaxDepth = overrides.MaxDepth
	}

	if resized {
		s.updateCamera()
	}
	return nil
}

// updateCamera rebuilds the camera from the camera config and image size
func (s *Scene) updateCamera() {
	if s.SamplingConfig.Width > 0 && s.SamplingConfig.Height > 0 {
		s.CameraConfig.AspectRatio = float64(s.SamplingConfig.Width) / float64(s.SamplingConfig.Height)
	}
	s.Camera = renderer.NewCamera(s.CameraConfig)
}

// GetPrimitiveCount returns the total number of shapes in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}
