// Package scene owns the object/material/light arenas and produces the
// immutable, read-only Snapshot an integrator renders against (spec.md §2
// "Scene — owns objects, materials, lights, background, accelerator.
// Produces an immutable snapshot after preprocessing", §9 "Global mutable
// state... moves into a Scene builder"), generalising the teacher's
// pkg/scene/scene.go Scene{Camera,Shapes,Lights,LightSampler,...}.
package scene

import (
	"github.com/yafaray/yafacore/pkg/accel"
	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/sampling"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// SamplingConfig carries the per-render sampling knobs the teacher's
// scene.SamplingConfig holds, extended with the integrator selection and
// the ray-tracing depth limits of spec.md §4.2 ("ray_level <= r_depth +
// additionalDepth").
type SamplingConfig struct {
	Width                     int
	Height                    int
	SamplesPerPixel           int
	MaxDepth                  int // r_depth
	AdditionalDepth           int
	ShadowDepth               int
	RussianRouletteMinBounces int
	TransparentShadows        bool
	LightSamplesPerArea       int // n_L, spec.md §4.2 "draw n_L samples"

	// AOSamples, when >0, enables the optional ambient-occlusion layer of
	// spec.md §4.2 ("cosine-hemisphere-sample n_AO rays, test against
	// ao_distance, accumulate ao_color · surfCol · |cos|").
	AOSamples  int
	AODistance float64
	AOColor    color.RGB
}

// Scene is the mutable builder: a scene file loader (out of scope per
// spec.md §1) or a programmatic test fixture appends to Primitives,
// Materials and Lights, then calls Preprocess once.
type Scene struct {
	Camera     *camera.Camera
	Primitives []geometry.Primitive
	Materials  []material.Material // arena indexed by geometry.MaterialID
	Lights     []lights.Light
	Background lights.Background

	Sampling    SamplingConfig
	AccelParams accel.Params
}

// AddMaterial appends m to the arena and returns its id, matching spec.md
// §9's "raw pointer back-references... become indices into an arena".
func (s *Scene) AddMaterial(m material.Material) geometry.MaterialID {
	s.Materials = append(s.Materials, m)
	return geometry.MaterialID(len(s.Materials) - 1)
}

// Material looks up a bound material by id.
func (s *Scene) Material(id geometry.MaterialID) material.Material {
	if int(id) < 0 || int(id) >= len(s.Materials) {
		return nil
	}
	return s.Materials[id]
}

// Snapshot is the read-only scene state an integrator borrows during a
// render (spec.md §3 "Scene snapshot... Immutable during render").
type Snapshot struct {
	Camera      *camera.Camera
	Accelerator *accel.Accelerator
	Materials   []material.Material
	Lights      []lights.Light
	Background  lights.Background
	LightPower  *sampling.PDF1D // spec.md §4.3 "Build PDF1D over lights' totalEnergy"
	Sampling    SamplingConfig
	Bound       geometry.Bound
}

// preprocessor is implemented by lights and backgrounds that need the
// scene's bounding sphere before EmitPhoton can place rays outside it
// (e.g. lights.Uniform, lights.Directional), matching the teacher's
// geometry.Preprocessor hook.
type preprocessor interface {
	Preprocess(worldCenter vec3.Vec3, worldRadius float64)
}

// Preprocess builds the accelerator, preprocesses every light/background
// that needs the scene's bounding sphere, and builds the power-proportional
// light distribution, following the teacher's Scene.Preprocess order (build
// BVH -> preprocess lights -> build light sampler).
func (s *Scene) Preprocess(log logger.Logger) (*Snapshot, error) {
	if len(s.Primitives) == 0 {
		log.Warnf("scene: preprocessing with zero primitives (spec.md S1 empty-scene behaviour)")
	}
	if len(s.Lights) == 0 && s.Background == nil {
		log.Warnf("scene: no lights and no background; render will be black")
	}

	accelerator := accel.Build(s.Primitives, s.AccelParams)
	bound := accelerator.Bound()
	if bound.Min.X > bound.Max.X {
		// empty scene: the accelerator's bound never grew past its initial
		// inverted state, so substitute a unit box about the origin to keep
		// light preprocessing finite (spec.md §8 S1).
		bound = geometry.Bound{Min: vec3.New(-1, -1, -1), Max: vec3.New(1, 1, 1)}
	}
	center := bound.Min.Add(bound.Max).Mul(0.5)
	radius := bound.Max.Sub(center).Length()
	if radius <= 0 {
		radius = 1
	}

	for _, l := range s.Lights {
		if pp, ok := l.(preprocessor); ok {
			pp.Preprocess(center, radius)
		}
	}
	if pp, ok := s.Background.(preprocessor); ok {
		pp.Preprocess(center, radius)
	}

	// spec.md §7: "A render with no lights completes and emits background
	// only" -- zero lights is not an error, only logged above.
	lightPower := lights.PowerDistribution(s.Lights)

	return &Snapshot{
		Camera:      s.Camera,
		Accelerator: accelerator,
		Materials:   s.Materials,
		Lights:      s.Lights,
		Background:  s.Background,
		LightPower:  lightPower,
		Sampling:    s.Sampling,
		Bound:       bound,
	}, nil
}
