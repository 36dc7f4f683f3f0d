// Package integrator implements the Surface integrator contract of
// spec.md §2 step 7 ("consumes 1-6, produces per-pixel radiance") and its
// direct-light + recursive Monte-Carlo variant of §4.2, generalising the
// teacher's recursive rayColorRecursive/direct-lighting split in
// pkg/renderer/progressive.go and pkg/renderer/raytracer.go into a
// standalone, scene-agnostic Integrator.
package integrator

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/control"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/scene"
)

// State carries the per-sample context the integrator needs across a
// recursive trace: chromatic wavelength handling and the RNG stream index
// used to derive deterministic Halton offsets (spec.md §4.2 "Caller
// provides chromatic/wavelength context and a per-pixel sample index").
type State struct {
	StreamIndex uint64 // pixelSample-derived index, spec.md §4.2 stratified offset
	Chromatic   bool
	Depth       int // current recursion depth, 0 at the primary ray

	// PixelX, PixelY identify the owning pixel; only SPPM's per-pixel
	// hitpoint accumulator (spec.md §4.4) consults them -- Path ignores
	// them entirely.
	PixelX, PixelY int

	// Cancel is polled at the top of each recursion (spec.md §5
	// "Cancellation: cooperative... at the top of each recursion in
	// integrators"); nil means never cancelled.
	Cancel *control.RenderControl
}

// Result is the per-call output of Integrate: a colour plus the alpha
// channel carried through refraction chains (spec.md §4.2 "Refraction
// preserves alpha through the chain").
type Result struct {
	Color color.RGB
	Alpha float64
}

// Integrator is the capability spec.md §2 names as "Surface integrator".
type Integrator interface {
	// Preprocess runs any one-time setup the integrator needs before the
	// first Integrate call (e.g. SPPM's photon passes), with ctrl polled so
	// a long photon pass can be cancelled (spec.md §6
	// "SurfaceIntegrator::preprocess(scene, renderControl)").
	Preprocess(snap *scene.Snapshot, ctrl *control.RenderControl) error
	// Integrate traces ray r and returns its contribution.
	Integrate(snap *scene.Snapshot, r geometry.Ray, st State) Result
}
