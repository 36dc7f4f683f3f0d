package integrator

import (
	"math"
	"testing"

	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func preprocess(t *testing.T, s *scene.Scene) *scene.Snapshot {
	t.Helper()
	snap, err := s.Preprocess(logger.Nop{})
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	return snap
}

// An empty scene returns the background colour for every ray, with the
// background's alpha.
func TestEmptySceneReturnsBackground(t *testing.T) {
	s := &scene.Scene{
		Camera:     camera.New(camera.Config{Center: vec3.New(0, 0, 0), LookAt: vec3.New(0, 0, 1), Width: 4, AspectRatio: 1}),
		Sampling:   scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1},
		Background: &lights.Uniform{Color: color.New(0.1, 0.2, 0.3)},
	}
	snap := preprocess(t, s)

	p := &Path{}
	r := geometry.NewRay(vec3.New(0, 0, 0), vec3.New(0, 0, 1))
	got := p.Integrate(snap, r, State{Chromatic: true})
	want := color.New(0.1, 0.2, 0.3)
	if absd(got.Color.R-want.R) > 1e-12 || absd(got.Color.G-want.G) > 1e-12 || absd(got.Color.B-want.B) > 1e-12 {
		t.Errorf("Integrate() = %+v, want background %+v", got.Color, want)
	}
	if got.Alpha != 0 {
		t.Errorf("background alpha = %v, want 0", got.Alpha)
	}
}

// A Lambertian albedo-0.8 sphere lit head-on by a unit directional light
// returns exactly albedo/pi at the facing pole.
func TestLambertSphereUnderDirectionalLight(t *testing.T) {
	s := &scene.Scene{
		Camera:   camera.New(camera.Config{Center: vec3.New(0, 0, 5), LookAt: vec3.New(0, 0, 0), Width: 4, AspectRatio: 1}),
		Sampling: scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1},
	}
	matID := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.8, 0.8, 0.8)})
	s.Primitives = []geometry.Primitive{&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1, MatID: matID}}
	s.Lights = []lights.Light{&lights.Directional{Direction: vec3.New(0, 0, -1), Radiance: color.White}}
	snap := preprocess(t, s)

	p := &Path{}
	r := geometry.NewRay(vec3.New(0, 0, 5), vec3.New(0, 0, -1))
	got := p.Integrate(snap, r, State{Chromatic: true})
	want := 0.8 / math.Pi
	if absd(got.Color.R-want) > 1e-4 {
		t.Errorf("Integrate().R = %v, want %v (albedo/pi)", got.Color.R, want)
	}
	if got.Alpha != 1 {
		t.Errorf("surface alpha = %v, want 1", got.Alpha)
	}
}

// A floor point directly beneath an occluder receives no direct light; a
// point outside the occluder's footprint does.
func TestOccluderBlocksDirectLight(t *testing.T) {
	up := vec3.New(0, 0, 1)
	s := &scene.Scene{
		Camera:   camera.New(camera.Config{Center: vec3.New(0, 0, 5), LookAt: vec3.New(0, 0, 0), Width: 4, AspectRatio: 1}),
		Sampling: scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1},
	}
	matID := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.8, 0.8, 0.8)})
	s.Primitives = []geometry.Primitive{
		// floor at z=0 covering [-5,5]^2
		&geometry.Triangle{V0: vec3.New(-5, -5, 0), V1: vec3.New(5, -5, 0), V2: vec3.New(5, 5, 0), N0: up, N1: up, N2: up, MatID: matID},
		&geometry.Triangle{V0: vec3.New(-5, -5, 0), V1: vec3.New(5, 5, 0), V2: vec3.New(-5, 5, 0), N0: up, N1: up, N2: up, MatID: matID},
		// occluder at z=1 covering [-1,1]^2
		&geometry.Triangle{V0: vec3.New(-1, -1, 1), V1: vec3.New(1, -1, 1), V2: vec3.New(1, 1, 1), N0: up, N1: up, N2: up, MatID: matID},
		&geometry.Triangle{V0: vec3.New(-1, -1, 1), V1: vec3.New(1, 1, 1), V2: vec3.New(-1, 1, 1), N0: up, N1: up, N2: up, MatID: matID},
	}
	s.Lights = []lights.Light{&lights.Point{Position: vec3.New(0, 0, 2), Power: color.White}}
	snap := preprocess(t, s)

	p := &Path{}
	mat := snap.Materials[matID]

	shadowed := geometry.SurfacePoint{Position: vec3.New(0, 0, 0), Normal: up, GeoNormal: up, Material: matID}
	if got := p.directLighting(snap, shadowed, mat, nil, up, State{}); !got.IsBlack() {
		t.Errorf("occluded floor point received direct light %+v, want black", got)
	}

	lit := geometry.SurfacePoint{Position: vec3.New(3, 0, 0), Normal: up, GeoNormal: up, Material: matID}
	if got := p.directLighting(snap, lit, mat, nil, up, State{}); got.IsBlack() {
		t.Errorf("unoccluded floor point received no direct light")
	}
}

// A perfectly specular sphere in a constant environment returns exactly
// that environment colour within one recursion.
func TestMirrorSphereReflectsConstantEnvironment(t *testing.T) {
	env := color.New(0.4, 0.5, 0.6)
	s := &scene.Scene{
		Camera:     camera.New(camera.Config{Center: vec3.New(0, 0, 5), LookAt: vec3.New(0, 0, 0), Width: 4, AspectRatio: 1}),
		Sampling:   scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1},
		Background: &lights.Uniform{Color: env},
	}
	matID := s.AddMaterial(&material.Mirror{Reflectance: color.White})
	s.Primitives = []geometry.Primitive{&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1, MatID: matID}}
	snap := preprocess(t, s)

	p := &Path{}
	r := geometry.NewRay(vec3.New(0.3, 0.2, 5), vec3.New(0, 0, -1))
	got := p.Integrate(snap, r, State{Chromatic: true})
	if absd(got.Color.R-env.R) > 1e-9 || absd(got.Color.G-env.G) > 1e-9 || absd(got.Color.B-env.B) > 1e-9 {
		t.Errorf("mirror returned %+v, want the environment %+v", got.Color, env)
	}
}

func absd(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
