package core

import (
	"math/rand"
)

// Vec2 represents a 2D sample
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// SequenceSampler replays a fixed list of values, wrapping around at the end.
// Get2D and Get3D consume consecutive values.
type SequenceSampler struct {
	values []float64
	index  int
}

// NewSequenceSampler creates a sampler that cycles through values
func NewSequenceSampler(values ...float64) *SequenceSampler {
	if len(values) == 0 {
		panic("core: sequence sampler needs at least one value")
	}
	return &SequenceSampler{values: values}
}

// Get1D returns the next value in the sequence
func (s *SequenceSampler) Get1D() float64 {
	val := s.values[s.index]
	s.index = (s.index + 1) % len(s.values)
	return val
}

// Get2D returns the next two values in the sequence
func (s *SequenceSampler) Get2D() Vec2 {
	x := s.Get1D()
	return NewVec2(x, s.Get1D())
}

// Get3D returns the next three values in the sequence
func (s *SequenceSampler) Get3D() Vec3 {
	x := s.Get1D()
	y := s.Get1D()
	return NewVec3(x, y, s.Get1D())
}

// Uniform returns a value uniformly distributed in [0, 1)
func Uniform(sampler Sampler) float64 {
	return sampler.Get1D()
}

// RandomColor returns a color with three independent uniform channels in [0, 1)
func RandomColor(sampler Sampler) Color {
	return sampler.Get3D()
}

// RandomColorRange returns a color with three independent channels in [minVal, maxVal)
func RandomColorRange(sampler Sampler, minVal, maxVal float64) Color {
	u := sampler.Get3D()
	span := maxVal - minVal
	return NewColor(minVal+span*u.X, minVal+span*u.Y, minVal+span*u.Z)
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit ball
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		// Generate random point in [-1,1]³ cube
		u := sampler.Get3D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 2*u.Z-1)
		// Accept if inside unit sphere
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}

// RandomOnUnitSphere normalizes a point drawn from the [-1,1]³ cube.
// The cube is not clipped to the ball first, so directions cluster slightly
// toward the cube's corners and edges rather than being uniform on the sphere.
func RandomOnUnitSphere(sampler Sampler) Vec3 {
	for {
		u := sampler.Get3D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 2*u.Z-1)
		if p.LengthSquared() > 0 {
			return p.Unit()
		}
	}
}

// RandomInUnitDisc rejection-samples a point inside the unit disc in the z = 0 plane
func RandomInUnitDisc(sampler Sampler) Vec3 {
	for {
		// Generate random point in [-1,1] x [-1,1] square
		u := sampler.Get2D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 0)
		// Accept if inside unit disk
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}
