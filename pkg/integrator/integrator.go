package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the color carried back along ray, following at most depth scatter events
	RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Color
}

// Background supplies the color seen by rays that escape the scene
type Background interface {
	Color(ray core.Ray) core.Color
}

// GradientBackground blends vertically between two colors by ray direction
type GradientBackground struct {
	Top    core.Color // Color looking straight up
	Bottom core.Color // Color looking straight down
}

// DefaultBackground returns the white-to-sky-blue gradient
func DefaultBackground() GradientBackground {
	return GradientBackground{
		Top:    core.NewColor(0.5, 0.7, 1.0),
		Bottom: core.NewColor(1.0, 1.0, 1.0),
	}
}

// Color returns the gradient color for the ray's normalized y direction
func (g GradientBackground) Color(ray core.Ray) core.Color {
	unitDirection := ray.Direction.Unit()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return g.Bottom.Multiply(1.0 - t).Add(g.Top.Multiply(t))
}
