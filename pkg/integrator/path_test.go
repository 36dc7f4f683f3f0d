package integrator

import (
	"testing"

	"github.com/yafaray/yafacore/pkg/accel"
	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func newSingleSphereSnapshot(t *testing.T, sampling scene.SamplingConfig) *scene.Snapshot {
	t.Helper()
	s := &scene.Scene{
		Camera: camera.New(camera.Config{
			Center:      vec3.New(0, 0, 4),
			LookAt:      vec3.New(0, 0, 0),
			Width:       4,
			AspectRatio: 1,
		}),
		Sampling:    sampling,
		AccelParams: accel.Params{},
	}
	matID := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.8, 0.8, 0.8)})
	s.Primitives = []geometry.Primitive{&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1, MatID: matID}}
	s.Lights = []lights.Light{&lights.Point{Position: vec3.New(2, 2, 2), Power: color.New(40, 40, 40)}}

	snap, err := s.Preprocess(logger.Nop{})
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	return snap
}

func TestAmbientOcclusionDisabledByDefault(t *testing.T) {
	snap := newSingleSphereSnapshot(t, scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1})
	p := &Path{}

	sp := geometry.SurfacePoint{Position: vec3.New(0, 0, 1), Normal: vec3.New(0, 0, 1), GeoNormal: vec3.New(0, 0, 1), Material: 0}
	mat := snap.Materials[0]
	data := mat.InitBSDF(sp)

	got := p.ambientOcclusion(snap, sp, mat, data, vec3.New(0, 0, 1), State{})
	if !got.IsBlack() {
		t.Errorf("expected no AO contribution when Sampling.AOSamples == 0, got %v", got)
	}
}

func TestAmbientOcclusionOccludedByOwnGeometryContributesNothing(t *testing.T) {
	sampling := scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1, AOSamples: 16, AODistance: 3, AOColor: color.New(1, 1, 1)}
	snap := newSingleSphereSnapshot(t, sampling)
	p := &Path{}

	// A point on the sphere's +Z pole with its normal flipped to face back
	// into the sphere's own volume: every cosine-hemisphere sample crosses
	// the interior and re-hits the far side well within AODistance.
	sp := geometry.SurfacePoint{Position: vec3.New(0, 0, 1), Normal: vec3.New(0, 0, -1), GeoNormal: vec3.New(0, 0, -1), Material: 0}
	mat := snap.Materials[0]
	data := mat.InitBSDF(sp)

	got := p.ambientOcclusion(snap, sp, mat, data, vec3.New(0, 0, 1), State{})
	if !got.IsBlack() {
		t.Errorf("expected a fully self-occluded point to contribute no AO, got %v", got)
	}
}

func TestAmbientOcclusionUnoccludedContributesPositiveRadiance(t *testing.T) {
	sampling := scene.SamplingConfig{MaxDepth: 2, LightSamplesPerArea: 1, AOSamples: 64, AODistance: 0.1, AOColor: color.New(1, 1, 1)}
	snap := newSingleSphereSnapshot(t, sampling)
	p := &Path{}

	// A point on the sphere's +Z pole with its normal facing directly away
	// from all geometry: a short AODistance never reaches back to the
	// sphere, so every sample should be unoccluded.
	sp := geometry.SurfacePoint{Position: vec3.New(0, 0, 1), Normal: vec3.New(0, 0, 1), GeoNormal: vec3.New(0, 0, 1), Material: 0}
	mat := snap.Materials[0]
	data := mat.InitBSDF(sp)

	got := p.ambientOcclusion(snap, sp, mat, data, vec3.New(0, 0, 1), State{})
	if got.IsBlack() {
		t.Errorf("expected a positive AO contribution from an unoccluded point, got black")
	}
}
