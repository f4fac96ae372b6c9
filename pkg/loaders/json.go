package loaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// SceneFile is the JSON document describing a scene
type SceneFile struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Group       string                  `json:"group"`
	Camera      *CameraSpec             `json:"camera"`
	Render      RenderSpec              `json:"render"`
	Background  *BackgroundSpec         `json:"background"`
	Materials   map[string]MaterialSpec `json:"materials"`
	Spheres     []SphereSpec            `json:"spheres"`
}

// CameraSpec describes the camera. Angles are in degrees.
type CameraSpec struct {
	LookFrom      Vec3Spec  `json:"lookFrom"`
	LookAt        Vec3Spec  `json:"lookAt"`
	Up            *Vec3Spec `json:"up"`          // Defaults to +Y
	VFovDegrees   float64   `json:"vfovDegrees"` // Defaults to 90
	Aperture      float64   `json:"aperture"`
	FocusDistance float64   `json:"focusDistance"` // 0 focuses on lookAt
}

// RenderSpec overrides the default sampling configuration. Zero fields keep the defaults.
type RenderSpec struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	SamplesPerPixel int `json:"samplesPerPixel"`
	MaxDepth        int `json:"maxDepth"`
}

// BackgroundSpec replaces the sky gradient
type BackgroundSpec struct {
	Top    ColorSpec `json:"top"`
	Bottom ColorSpec `json:"bottom"`
}

// MaterialSpec describes a named material
type MaterialSpec struct {
	Type   string     `json:"type"`   // matte, metal or dielectric
	Albedo *ColorSpec `json:"albedo"` // matte and metal
	Fuzz   float64    `json:"fuzz"`   // metal
	IR     float64    `json:"ir"`     // dielectric index of refraction
}

// SphereSpec places a sphere using a named material
type SphereSpec struct {
	Center   Vec3Spec `json:"center"`
	Radius   float64  `json:"radius"`
	Material string   `json:"material"`
}

// Vec3Spec decodes a JSON [x, y, z] array
type Vec3Spec core.Vec3

// UnmarshalJSON implements json.Unmarshaler
func (v *Vec3Spec) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("vector must be an array of 3 numbers: %w", err)
	}
	if len(values) != 3 {
		return fmt.Errorf("vector must have 3 components, got %d", len(values))
	}
	*v = Vec3Spec{X: values[0], Y: values[1], Z: values[2]}
	return nil
}

// ColorSpec decodes either a JSON [r, g, b] array in [0,1] or a CSS color name such as "goldenrod"
type ColorSpec core.Color

// UnmarshalJSON implements json.Unmarshaler
func (c *ColorSpec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("unknown color name %q", name)
		}
		*c = ColorSpec{X: float64(rgba.R) / 255, Y: float64(rgba.G) / 255, Z: float64(rgba.B) / 255}
		return nil
	}

	var v Vec3Spec
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("color must be a name or an [r, g, b] array: %w", err)
	}
	for _, ch := range []float64{v.X, v.Y, v.Z} {
		if ch < 0 || ch > 1 || math.IsNaN(ch) {
			return fmt.Errorf("color channel %v outside [0, 1]", ch)
		}
	}
	*c = ColorSpec(v)
	return nil
}

// ParseSceneFile decodes a JSON scene document without building it
func ParseSceneFile(reader io.Reader) (*SceneFile, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	var file SceneFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode scene file: %w", err)
	}
	return &file, nil
}

// ParseScene decodes and builds a scene from a JSON document
func ParseScene(reader io.Reader) (*scene.Scene, error) {
	file, err := ParseSceneFile(reader)
	if err != nil {
		return nil, err
	}
	return file.Build()
}

// LoadScene loads and builds a JSON scene file
func LoadScene(filename string) (*scene.Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}

	s, err := ParseScene(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Build validates the document and constructs the scene
func (f *SceneFile) Build() (*scene.Scene, error) {
	if f.Camera == nil {
		return nil, fmt.Errorf("missing camera section")
	}
	if len(f.Spheres) == 0 {
		return nil, fmt.Errorf("scene has no spheres")
	}

	sampling, err := f.Render.samplingConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid render section: %w", err)
	}

	cameraConfig := f.Camera.cameraConfig(sampling)
	if err := cameraConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid camera: %w", err)
	}

	materials, err := f.buildMaterials()
	if err != nil {
		return nil, err
	}

	world := geometry.NewShapeList()
	for i, spec := range f.Spheres {
		mat, ok := materials[spec.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d: unknown material %q", i, spec.Material)
		}
		if !(spec.Radius > 0) {
			return nil, fmt.Errorf("sphere %d: radius must be positive, got %v", i, spec.Radius)
		}
		world.Add(geometry.NewSphere(core.Vec3(spec.Center), spec.Radius, mat))
	}

	name := f.Name
	if name == "" {
		name = "scene-file"
	}

	s := scene.NewScene(name, cameraConfig, sampling, world)
	if f.Background != nil {
		s.Background = integrator.GradientBackground{
			Top:    core.Color(f.Background.Top),
			Bottom: core.Color(f.Background.Bottom),
		}
	}
	return s, nil
}

// buildMaterials creates every named material once so spheres can share them
func (f *SceneFile) buildMaterials() (map[string]material.Material, error) {
	// Build in name order so errors are reported deterministically
	names := make([]string, 0, len(f.Materials))
	for name := range f.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	materials := make(map[string]material.Material, len(names))
	for _, name := range names {
		mat, err := f.Materials[name].build()
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = mat
	}
	return materials, nil
}

func (m MaterialSpec) build() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "matte", "lambertian":
		if m.Albedo == nil {
			return nil, fmt.Errorf("matte material needs an albedo")
		}
		return material.NewLambertian(core.Color(*m.Albedo)), nil
	case "metal":
		if m.Albedo == nil {
			return nil, fmt.Errorf("metal material needs an albedo")
		}
		return material.NewMetal(core.Color(*m.Albedo), m.Fuzz), nil
	case "dielectric", "glass":
		if !(m.IR > 0) {
			return nil, fmt.Errorf("dielectric needs a positive ir, got %v", m.IR)
		}
		return material.NewDielectric(m.IR), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}

func (r RenderSpec) samplingConfig() (renderer.SamplingConfig, error) {
	if r.Width < 0 || r.Height < 0 || r.SamplesPerPixel < 0 || r.MaxDepth < 0 {
		return renderer.SamplingConfig{}, fmt.Errorf("values must not be negative: %+v", r)
	}

	config := renderer.DefaultSamplingConfig()
	if r.Width > 0 {
		config.Width = r.Width
	}
	if r.Height > 0 {
		config.Height = r.Height
	}
	if r.SamplesPerPixel > 0 {
		config.SamplesPerPixel = r.SamplesPerPixel
	}
	if r.MaxDepth > 0 {
		config.MaxDepth = r.MaxDepth
	}
	return config, nil
}

func (c *CameraSpec) cameraConfig(sampling renderer.SamplingConfig) renderer.CameraConfig {
	up := core.NewVec3(0, 1, 0)
	if c.Up != nil {
		up = core.Vec3(*c.Up)
	}
	vfov := c.VFovDegrees
	if vfov == 0 {
		vfov = 90
	}

	return renderer.CameraConfig{
		LookFrom:      core.Vec3(c.LookFrom),
		LookAt:        core.Vec3(c.LookAt),
		Up:            up,
		VFov:          vfov * math.Pi / 180,
		AspectRatio:   float64(sampling.Width) / float64(sampling.Height),
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
	}
}
