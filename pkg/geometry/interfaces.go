package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Shape interface for objects that can be hit by rays
type Shape interface {
	// Hit returns the closest intersection with tMin <= t <= tMax, if any
	Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}
