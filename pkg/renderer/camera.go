package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	LookFrom      core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually 0,1,0)
	VFov          float64   // Vertical field of view in radians
	AspectRatio   float64   // Width / height
	Aperture      float64   // Lens diameter, 0 for a pinhole camera
	FocusDistance float64   // Distance to the focal plane, 0 focuses on LookAt
}

// DefaultCameraConfig returns a pinhole camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        2 * math.Atan(1), // 90 degrees: viewport height of 2 at focal length 1
		AspectRatio: 16.0 / 9.0,
	}
}

// Camera generates rays for rendering using a thin lens model
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Camera basis
	lensRadius      float64
}

// Validate reports why the configuration cannot produce a camera, or nil
func (config CameraConfig) Validate() error {
	if config.Aperture < 0 {
		return fmt.Errorf("negative aperture %v", config.Aperture)
	}
	if !(config.AspectRatio > 0) {
		return fmt.Errorf("aspect ratio must be positive, got %v", config.AspectRatio)
	}
	if !(config.VFov > 0 && config.VFov < math.Pi) {
		return fmt.Errorf("vertical field of view %v outside (0, π)", config.VFov)
	}
	if config.FocusDistance < 0 {
		return fmt.Errorf("negative focus distance %v", config.FocusDistance)
	}
	view := config.LookFrom.Subtract(config.LookAt)
	if view.NearZero() {
		return fmt.Errorf("LookFrom and LookAt coincide at %v", config.LookFrom)
	}
	if config.Up.Cross(view.Unit()).NearZero() {
		return fmt.Errorf("Up %v is parallel to the view direction", config.Up)
	}
	return nil
}

// NewCamera creates a camera from the configuration. It panics when Validate fails.
func NewCamera(config CameraConfig) *Camera {
	if err := config.Validate(); err != nil {
		panic("camera: " + err.Error())
	}

	view := config.LookFrom.Subtract(config.LookAt)
	w := view.Unit()
	u := config.Up.Cross(w).Unit()
	v := w.Cross(u)

	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = view.Length()
	}

	viewportHeight := 2.0 * math.Tan(config.VFov/2)
	viewportWidth := config.AspectRatio * viewportHeight

	origin := config.LookFrom
	horizontal := u.Multiply(focusDistance * viewportWidth)
	vertical := v.Multiply(focusDistance * viewportHeight)
	lowerLeftCorner := origin.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
	}
}

// GetRay generates a ray for viewport coordinates (s, t) where 0 <= s,t <= 1,
// measured from the lower left corner. The sampler is only used when the lens has an aperture.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	origin := c.origin
	if c.lensRadius > 0 {
		rd := core.RandomInUnitDisc(sampler).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(rd.X)).Add(c.v.Multiply(rd.Y))
	}

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	return core.NewRay(origin, direction)
}

// Origin returns the center of the lens
func (c *Camera) Origin() core.Vec3 {
	return c.origin
}
