// Package lights implements the capability-set Light contract of spec.md
// §2.4/§6 (emitPhoton/illuminate/illumSample/intersect/totalEnergy/
// isDelta/isSingular) and its concrete variants: Point, Directional, and
// rectangular Area lights.
package lights

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// IlluminateSample is the result of a single direct-lighting draw:
// direction towards the light, distance, pdf, and unoccluded radiance.
type IlluminateSample struct {
	Wi    vec3.Vec3
	Dist  float64
	Pdf   float64
	Color color.RGB
}

// Light is the capability set of spec.md §2.4.
type Light interface {
	// Illuminate returns a sample towards the light from sp for a delta
	// light (single deterministic direction, pdf==1 by convention).
	Illuminate(sp geometry.SurfacePoint) (IlluminateSample, bool)
	// IllumSample draws a stratified sample towards the light's surface,
	// used for area/solid-angle lights (spec.md §4.2 "draw n_L samples").
	IllumSample(sp geometry.SurfacePoint, u1, u2 float64) (IlluminateSample, bool)
	// Intersect tests whether ray r hits this light's surface directly,
	// used for MIS with BSDF-sampling strategies when the light is
	// intersectable; ok is false for delta lights.
	Intersect(r geometry.Ray, tMax float64) (dist float64, color color.RGB, pdf float64, ok bool)
	// EmitPhoton emits a photon-shooting ray from the light (spec.md §4.3
	// "emitPhoton(u1..u4, t) -> (ray, areaPdf, dirPdf, color)").
	EmitPhoton(u1, u2, u3, u4, t float64) (r geometry.Ray, areaPdf, dirPdf float64, c color.RGB)
	// TotalEnergy returns the light's total emitted power, used to build
	// the power-proportional PDF1D over all scene lights (spec.md §4.3).
	TotalEnergy() color.RGB
	// IsDelta reports whether the light occupies zero solid angle (point,
	// directional): such lights contribute only the light-sampling
	// strategy, never BSDF-sampling MIS (spec.md §4.2).
	IsDelta() bool
	// IsSingular reports whether the light's emission direction from a
	// given point is a singular (zero-measure) distribution, as opposed to
	// one spread over a solid angle; true for point/directional/spot
	// lights, false for area lights.
	IsSingular() bool
	// CastsCausticPhotons reports whether this light seeds the caustic
	// photon pass (spec.md §6 "castsCausticPhotons").
	CastsCausticPhotons() bool
}
