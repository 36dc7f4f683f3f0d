package renderer

import (
	"context"
	"testing"

	"github.com/yafaray/yafacore/pkg/accel"
	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/integrator"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/rayerr"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func newTestSnapshot(t *testing.T) *scene.Snapshot {
	t.Helper()
	s := &scene.Scene{
		Camera: camera.New(camera.Config{
			Center:      vec3.New(0, 0, 4),
			LookAt:      vec3.New(0, 0, 0),
			Width:       8,
			AspectRatio: 1,
		}),
		Sampling: scene.SamplingConfig{
			Width:               8,
			Height:              8,
			MaxDepth:            4,
			LightSamplesPerArea: 1,
		},
		AccelParams: accel.Params{},
	}
	matID := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.8, 0.2, 0.2)})
	s.Primitives = []geometry.Primitive{&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1, MatID: matID}}
	s.Lights = []lights.Light{&lights.Point{Position: vec3.New(2, 2, 2), Power: color.New(40, 40, 40)}}

	snap, err := s.Preprocess(logger.Nop{})
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	return snap
}

func TestDriverRunPassProducesNonBlackImage(t *testing.T) {
	snap := newTestSnapshot(t)
	cfg := DefaultConfig()
	cfg.MaxPasses = 2
	cfg.TileSize = 4

	d, err := NewDriver(snap, &integrator.Path{}, cfg, logger.Nop{})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	if _, err := d.RunPass(1, 2); err != nil {
		t.Fatalf("RunPass(1) error = %v", err)
	}

	img := d.Film().Flush()
	var anyLit bool
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0 || g != 0 || b != 0 {
				anyLit = true
			}
		}
	}
	if !anyLit {
		t.Errorf("expected at least one lit pixel after a pass, got an all-black image")
	}
}

func TestDriverRenderProgressiveRespectsCancellation(t *testing.T) {
	snap := newTestSnapshot(t)
	cfg := DefaultConfig()
	cfg.MaxPasses = 50
	cfg.TileSize = 4

	d, err := NewDriver(snap, &integrator.Path{}, cfg, logger.Nop{})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passChan, errChan := d.RenderProgressive(ctx, 1)
	select {
	case _, ok := <-passChan:
		if ok {
			t.Fatalf("expected no pass results after immediate cancellation")
		}
	case err := <-errChan:
		if err != context.Canceled {
			t.Fatalf("errChan = %v, want context.Canceled", err)
		}
	}
}

func TestDriverCancelViaControlReturnsCancelledAndFlushableFilm(t *testing.T) {
	snap := newTestSnapshot(t)
	cfg := DefaultConfig()
	cfg.TileSize = 4

	d, err := NewDriver(snap, &integrator.Path{}, cfg, logger.Nop{})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	d.Control().Cancel()
	if _, err := d.RunPass(1, 2); !rayerr.Is(err, rayerr.Cancelled) {
		t.Fatalf("RunPass after Cancel() = %v, want a Cancelled error", err)
	}

	// a cancelled render still flushes a valid (if partial) image.
	img := d.Film().Flush()
	if img.Bounds().Dx() != snap.Sampling.Width || img.Bounds().Dy() != snap.Sampling.Height {
		t.Errorf("Flush() after cancellation returned %v, want full %dx%d raster",
			img.Bounds(), snap.Sampling.Width, snap.Sampling.Height)
	}
}

func TestConfigSamplesForPassGrowsByMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AAIncSamples = 2
	cfg.AAMultiplier = 2

	if got := cfg.samplesForPass(1); got != cfg.AASamples {
		t.Errorf("samplesForPass(1) = %d, want %d", got, cfg.AASamples)
	}
	if got, want := cfg.samplesForPass(2), 2; got != want {
		t.Errorf("samplesForPass(2) = %d, want %d", got, want)
	}
	if got, want := cfg.samplesForPass(3), 4; got != want {
		t.Errorf("samplesForPass(3) = %d, want %d", got, want)
	}
}
