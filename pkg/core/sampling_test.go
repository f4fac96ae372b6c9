package core

import (
	"math"
	"testing"
)

func TestRandomSampler_Range(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 10000; i++ {
		u := Uniform(sampler)
		if u < 0 || u >= 1 {
			t.Fatalf("Uniform out of range: %f", u)
		}
	}
}

func TestRandomSampler_Deterministic(t *testing.T) {
	a := NewSeededSampler(7)
	b := NewSeededSampler(7)
	for i := 0; i < 100; i++ {
		if a.Get1D() != b.Get1D() {
			t.Fatal("Samplers with the same seed should produce the same sequence")
		}
	}
}

func TestSequenceSampler_Cycles(t *testing.T) {
	s := NewSequenceSampler(0.1, 0.2, 0.3)
	expected := []float64{0.1, 0.2, 0.3, 0.1, 0.2}
	for i, want := range expected {
		if got := s.Get1D(); got != want {
			t.Errorf("Value %d: expected %f, got %f", i, want, got)
		}
	}

	s = NewSequenceSampler(0.1, 0.2, 0.3)
	if got := s.Get3D(); got != NewVec3(0.1, 0.2, 0.3) {
		t.Errorf("Get3D should consume three values in order, got %v", got)
	}
	if got := s.Get2D(); got != NewVec2(0.1, 0.2) {
		t.Errorf("Get2D should wrap around, got %v", got)
	}
}

func TestRandomColor(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		c := RandomColor(sampler)
		for _, ch := range []float64{c.X, c.Y, c.Z} {
			if ch < 0 || ch >= 1 {
				t.Fatalf("RandomColor channel out of range: %v", c)
			}
		}
	}
}

func TestRandomColorRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
	}{
		{"upper half", 0.5, 1.0},
		{"narrow", 0.2, 0.25},
		{"wide", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := NewSeededSampler(42)
			for i := 0; i < 1000; i++ {
				c := RandomColorRange(sampler, tt.min, tt.max)
				for _, ch := range []float64{c.X, c.Y, c.Z} {
					if ch < tt.min || ch >= tt.max {
						t.Fatalf("Channel %f outside [%f, %f)", ch, tt.min, tt.max)
					}
				}
			}
		})
	}

	// Exact mapping with a fixed sampler
	c := RandomColorRange(NewSequenceSampler(0, 0.5, 0.75), 0.5, 1.0)
	if !vecNear(c, NewVec3(0.5, 0.75, 0.875), 1e-12) {
		t.Errorf("Expected (0.5, 0.75, 0.875), got %v", c)
	}
}

func TestRandomInUnitSphere(t *testing.T) {
	sampler := NewSeededSampler(42)
	var sum Vec3
	n := 20000
	for i := 0; i < n; i++ {
		p := RandomInUnitSphere(sampler)
		if p.LengthSquared() >= 1 {
			t.Fatalf("Point %v is not strictly inside the unit sphere", p)
		}
		sum = sum.Add(p)
	}

	// Distribution should be centered on the origin
	mean := sum.Divide(float64(n))
	if mean.Length() > 0.02 {
		t.Errorf("Mean of unit sphere samples too far from origin: %v", mean)
	}
}

func TestRandomInUnitSphere_RejectsCorners(t *testing.T) {
	// First draw maps to the cube corner (0.9,0.9,0.9)*2-1 = (0.8,0.8,0.8), length² 1.92: rejected.
	// Second draw maps to (0,0,0).
	sampler := NewSequenceSampler(0.9, 0.9, 0.9, 0.5, 0.5, 0.5)
	p := RandomInUnitSphere(sampler)
	if p != NewVec3(0, 0, 0) {
		t.Errorf("Expected rejection of corner sample, got %v", p)
	}
}

func TestRandomOnUnitSphere(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 10000; i++ {
		p := RandomOnUnitSphere(sampler)
		if math.Abs(p.Length()-1) > 1e-9 {
			t.Fatalf("Point %v is not on the unit sphere", p)
		}
	}

	// Cube corner samples are normalized, not rejected
	p := RandomOnUnitSphere(NewSequenceSampler(1, 1, 1))
	expected := NewVec3(1, 1, 1).Unit()
	if !vecNear(p, expected, 1e-12) {
		t.Errorf("Expected normalized corner %v, got %v", expected, p)
	}
}

func TestRandomInUnitDisc(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 10000; i++ {
		p := RandomInUnitDisc(sampler)
		if p.Z != 0 {
			t.Fatalf("Disc sample should lie in z=0, got %v", p)
		}
		if p.LengthSquared() >= 1 {
			t.Fatalf("Disc sample %v outside unit disc", p)
		}
	}

	// (0.95, 0.95) maps to (0.9, 0.9), outside the disc; (0.75, 0.5) maps to (0.5, 0)
	p := RandomInUnitDisc(NewSequenceSampler(0.95, 0.95, 0.75, 0.5))
	if !vecNear(p, NewVec3(0.5, 0, 0), 1e-12) {
		t.Errorf("Expected (0.5,0,0) after rejection, got %v", p)
	}
}
