package scene

import (
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

func TestNewBuiltinScenes(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", name, err)
			}
			if s.Name != name {
				t.Errorf("Expected scene name %q, got %q", name, s.Name)
			}
			if s.GetCamera() == nil {
				t.Error("Expected a camera")
			}
			if s.GetPrimitiveCount() == 0 {
				t.Error("Expected shapes in the world")
			}

			config := s.GetSamplingConfig()
			if config.Width <= 0 || config.Height <= 0 || config.SamplesPerPixel <= 0 || config.MaxDepth <= 0 {
				t.Errorf("Invalid sampling config %+v", config)
			}
			expectedAspect := float64(config.Width) / float64(config.Height)
			if s.CameraConfig.AspectRatio != expectedAspect {
				t.Errorf("Expected aspect ratio %v, got %v", expectedAspect, s.CameraConfig.AspectRatio)
			}
		})
	}
}

func TestNewUnknownScene(t *testing.T) {
	if _, err := New("cornell-box"); err == nil {
		t.Error("Expected error for unknown scene")
	}
}

func TestNames(t *testing.T) {
	expected := []string{"default", "random-spheres", "single-sphere"}
	names := Names()
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, names)
		}
	}
}

func TestRandomSpheresDeterministic(t *testing.T) {
	a := NewRandomSpheresScene(7)
	b := NewRandomSpheresScene(7)
	c := NewRandomSpheresScene(8)

	if a.World.Len() != b.World.Len() {
		t.Fatalf("Same seed gave %d and %d shapes", a.World.Len(), b.World.Len())
	}
	for i := range a.World.Shapes {
		sa := a.World.Shapes[i].(*geometry.Sphere)
		sb := b.World.Shapes[i].(*geometry.Sphere)
		if sa.Center != sb.Center {
			t.Fatalf("Shape %d differs: %v vs %v", i, sa.Center, sb.Center)
		}
	}

	// Ground, at most 22x22 small spheres, three feature spheres
	maxShapes := 1 + RandomSpheresGrid*RandomSpheresGrid + 3
	if a.World.Len() > maxShapes || a.World.Len() < maxShapes-20 {
		t.Errorf("Unexpected shape count %d", a.World.Len())
	}

	differs := a.World.Len() != c.World.Len()
	for i := 1; !differs && i < a.World.Len(); i++ {
		if a.World.Shapes[i].(*geometry.Sphere).Center != c.World.Shapes[i].(*geometry.Sphere).Center {
			differs = true
		}
	}
	if !differs {
		t.Error("Different seeds should give different layouts")
	}
}

func TestApplySamplingOverrides(t *testing.T) {
	s := NewSingleSphereScene()
	original := s.GetCamera()

	if err := s.ApplySamplingOverrides(renderer.SamplingConfig{SamplesPerPixel: 3}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.SamplingConfig.SamplesPerPixel != 3 || s.SamplingConfig.Width != 400 {
		t.Errorf("Unexpected config %+v", s.SamplingConfig)
	}
	if s.GetCamera() != original {
		t.Error("Camera should not be rebuilt without a resolution change")
	}

	if err := s.ApplySamplingOverrides(renderer.SamplingConfig{Width: 100, Height: 100}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.CameraConfig.AspectRatio != 1 {
		t.Errorf("Expected aspect ratio 1, got %v", s.CameraConfig.AspectRatio)
	}
	if s.GetCamera() == original {
		t.Error("Expected a new camera after resizing")
	}

	if err := s.ApplySamplingOverrides(renderer.SamplingConfig{MaxDepth: -1}); err == nil {
		t.Error("Expected error for negative override")
	}
}

func TestSceneBackground(t *testing.T) {
	s := NewSingleSphereScene()
	if s.GetBackground() != integrator.Background(integrator.DefaultBackground()) {
		t.Error("Expected default gradient when no background is set")
	}

	custom := integrator.GradientBackground{Top: core.NewColor(1, 0, 0), Bottom: core.NewColor(0, 0, 1)}
	s.Background = custom
	if s.GetBackground() != integrator.Background(custom) {
		t.Error("Expected custom background")
	}
}

func TestSingleSphereRendersSphere(t *testing.T) {
	s := NewSingleSphereScene()
	if err := s.ApplySamplingOverrides(renderer.SamplingConfig{Width: 16, Height: 9, SamplesPerPixel: 8, MaxDepth: 5}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rt := renderer.NewRaytracer(s)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	// The image center looks at the gray sphere, the top row at the sky
	center := rt.SamplePixel(8, 4, sampler)
	top := rt.SamplePixel(8, 0, sampler)
	if center.Subtract(top).Length() < 0.05 {
		t.Errorf("Expected sphere pixel %v to differ from sky pixel %v", center, top)
	}

	hit, ok := s.GetWorld().Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, 10)
	if !ok {
		t.Fatal("Expected center ray to hit")
	}
	if _, isMatte := hit.Material.(*material.Lambertian); !isMatte {
		t.Errorf("Expected matte sphere, got %T", hit.Material)
	}
}
