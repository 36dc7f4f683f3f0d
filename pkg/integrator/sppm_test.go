package integrator

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/yafaray/yafacore/pkg/accel"
	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/photon"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// newSppmSnapshot builds a small open-box fixture (floor plus back wall)
// so photons can take the indirect floor->wall and wall->floor bounces the
// diffuse map's deposit rule requires; a single convex object would never
// receive a second diffuse hit.
func newSppmSnapshot(t *testing.T) *scene.Snapshot {
	t.Helper()
	s := &scene.Scene{
		Camera: camera.New(camera.Config{
			Center:      vec3.New(0, 1, 4),
			LookAt:      vec3.New(0, 1, 0),
			Width:       4,
			AspectRatio: 1,
		}),
		Sampling:    scene.SamplingConfig{MaxDepth: 4, LightSamplesPerArea: 1},
		AccelParams: accel.Params{},
	}
	matID := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.7, 0.7, 0.7)})
	up := vec3.New(0, 1, 0)
	front := vec3.New(0, 0, 1)
	s.Primitives = []geometry.Primitive{
		// floor [-2,2]^2 at y=0
		&geometry.Triangle{V0: vec3.New(-2, 0, 2), V1: vec3.New(2, 0, 2), V2: vec3.New(2, 0, -2), N0: up, N1: up, N2: up, MatID: matID},
		&geometry.Triangle{V0: vec3.New(-2, 0, 2), V1: vec3.New(2, 0, -2), V2: vec3.New(-2, 0, -2), N0: up, N1: up, N2: up, MatID: matID},
		// back wall at z=-2
		&geometry.Triangle{V0: vec3.New(-2, 0, -2), V1: vec3.New(2, 0, -2), V2: vec3.New(2, 4, -2), N0: front, N1: front, N2: front, MatID: matID},
		&geometry.Triangle{V0: vec3.New(-2, 0, -2), V1: vec3.New(2, 4, -2), V2: vec3.New(-2, 4, -2), N0: front, N1: front, N2: front, MatID: matID},
	}
	s.Lights = []lights.Light{&lights.Point{Position: vec3.New(0, 3, 1), Power: color.New(400, 400, 400)}}

	snap, err := s.Preprocess(logger.Nop{})
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	return snap
}

func TestSPPMNextPassPersistsAndResumes(t *testing.T) {
	snap := newSppmSnapshot(t)
	dir := t.TempDir()

	first := NewSPPM(photon.Params{NumPhotons: 5000, Threads: 1, Bounces: 4, CausDepth: 4})
	first.PersistDir = dir
	if err := first.Preprocess(snap, nil); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if first.diffuseMap == nil || first.diffuseMap.NumPhotons() == 0 {
		t.Fatalf("expected a non-empty diffuse map after the first pass")
	}
	if _, err := os.Stat(filepath.Join(dir, "pass001_diffuse.ypm")); err != nil {
		t.Fatalf("expected pass001_diffuse.ypm to be persisted: %v", err)
	}

	resumed := NewSPPM(photon.Params{NumPhotons: 5000, Threads: 1, Bounces: 4, CausDepth: 4})
	resumed.PersistDir = dir
	if err := resumed.Preprocess(snap, nil); err != nil {
		t.Fatalf("resumed Preprocess() error = %v", err)
	}
	if resumed.diffuseMap.NumPhotons() != first.diffuseMap.NumPhotons() {
		t.Errorf("resumed pass 1 diffuse photon count = %d, want %d (loaded from disk, not reshot)",
			resumed.diffuseMap.NumPhotons(), first.diffuseMap.NumPhotons())
	}
}

// Per-pixel R^2 must never grow and accumulated N must never shrink
// across passes (spec.md §8 invariants 5 and 6).
func TestSPPMRadiusShrinksAndPhotonCountGrows(t *testing.T) {
	snap := newSppmSnapshot(t)
	s := NewSPPM(photon.Params{NumPhotons: 5000, Threads: 1, Bounces: 4, CausDepth: 4})
	if err := s.Preprocess(snap, nil); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	ray := snap.Camera.ShootRay(2, 2, 0.5, 0.5, 0.5, 0.5)
	st := State{PixelX: 2, PixelY: 2, Chromatic: true}

	prevR2 := math.Inf(1)
	prevN := -1.0
	for pass := 1; pass <= 3; pass++ {
		if pass > 1 {
			if err := s.NextPass(snap); err != nil {
				t.Fatalf("NextPass(%d) error = %v", pass, err)
			}
		}
		s.Integrate(snap, ray.R, st)
		hp := s.hitpoints[[2]int{2, 2}]
		if hp == nil {
			t.Fatal("expected a hitpoint for the traced pixel")
		}
		if hp.R2 > prevR2+1e-12 {
			t.Fatalf("pass %d: R2 grew from %v to %v", pass, prevR2, hp.R2)
		}
		if hp.N < prevN {
			t.Fatalf("pass %d: N shrank from %v to %v", pass, prevN, hp.N)
		}
		prevR2, prevN = hp.R2, hp.N
	}
}

func TestSPPMNextPassWithoutPersistDirAlwaysReshoots(t *testing.T) {
	snap := newSppmSnapshot(t)
	s := NewSPPM(photon.Params{NumPhotons: 5000, Threads: 1, Bounces: 4, CausDepth: 4})
	if err := s.Preprocess(snap, nil); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if s.passNum != 1 {
		t.Errorf("passNum = %d, want 1 after Preprocess", s.passNum)
	}
	firstMap := s.diffuseMap
	if err := s.NextPass(snap); err != nil {
		t.Fatalf("NextPass() error = %v", err)
	}
	if s.passNum != 2 {
		t.Errorf("passNum = %d, want 2 after a second NextPass", s.passNum)
	}
	if s.diffuseMap == firstMap {
		t.Errorf("NextPass without PersistDir kept the previous diffuse map, want a freshly shot one")
	}
}
