// Package material implements the capability-set Material contract of
// spec.md §2.5/§6: initBsdf/eval/sample/pdf/specular/emit/alpha/
// volumeHandler, plus the concrete BSDFs the integrators exercise
// (Lambertian, Specular mirror, Dielectric glass with dispersion, Glossy)
// and the volume handlers recovered from original_source/ (§5 "Volume
// handler side selection").
package material

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Flags is the bitmask of BSDF lobe kinds named throughout spec.md §4.2/§4.3
// (sample_flags=ALL_SPECULAR|GLOSSY|FILTER|DISPERSIVE, etc).
type Flags uint32

const (
	FlagDiffuse Flags = 1 << iota
	FlagGlossy
	Specular
	Filter
	Reflect
	Transmit
	Dispersive
)

// All matches every lobe kind; used when the caller places no restriction
// on which component of the BSDF to sample or evaluate.
const All = FlagDiffuse | FlagGlossy | Specular | Filter | Reflect | Transmit | Dispersive

// Has reports whether f contains every bit in mask.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Any reports whether f shares any bit with mask.
func (f Flags) Any(mask Flags) bool { return f&mask != 0 }

// BSDFData is the opaque per-hit state a material's InitBSDF may stash
// (texture lookups, blend-factor sampling) for reuse across Eval/Sample/Pdf
// calls at the same surface point (spec.md §2.5 "initBsdf(sp) → opaque
// data"). Concrete materials are free to ignore it and return nil.
type BSDFData interface{}

// SpecularRay is one analytic (non-sampled) specular/filter ray produced by
// Material.Specular: a reflected or refracted direction together with the
// throughput it carries (spec.md §4.2 "Specular/filter... up to one reflect
// ray + one refract ray").
type SpecularRay struct {
	Dir   vec3.Vec3
	Color color.RGB
}

// Material is the capability set of spec.md §2.5 and §6.
type Material interface {
	// InitBSDF prepares per-hit shading data for sp, reused by the other
	// calls below at the same point.
	InitBSDF(sp geometry.SurfacePoint) BSDFData
	// Eval returns the BSDF value for the (wo, wi) direction pair restricted
	// to the lobes named in flags.
	Eval(sp geometry.SurfacePoint, data BSDFData, wo, wi vec3.Vec3, flags Flags) color.RGB
	// Sample draws an incoming direction from the BSDF restricted to flags,
	// returning the direction, the throughput f, the pdf, and which lobe
	// was actually sampled. For a delta lobe f is the branch's full
	// throughput (not divided by pdf) and pdf is the branch's selection
	// probability.
	Sample(sp geometry.SurfacePoint, data BSDFData, wo vec3.Vec3, u1, u2 float64, flags Flags) (wi vec3.Vec3, f color.RGB, pdf float64, sampledFlags Flags)
	// Pdf returns the solid-angle sampling density Sample would have used
	// for the given (wo, wi) pair, restricted to flags.
	Pdf(sp geometry.SurfacePoint, data BSDFData, wo, wi vec3.Vec3, flags Flags) float64
	// Specular returns the analytic reflect/refract rays for a purely
	// specular or filter material; either may be nil.
	Specular(sp geometry.SurfacePoint, data BSDFData, wo vec3.Vec3) (reflect, refract *SpecularRay)
	// Emit returns the material's self-emission towards wo (non-zero only
	// for emissive materials used as mesh lights).
	Emit(sp geometry.SurfacePoint, data BSDFData, wo vec3.Vec3) color.RGB
	// Alpha returns the coverage alpha at sp (1 unless the material filters).
	Alpha(sp geometry.SurfacePoint, data BSDFData, wo vec3.Vec3) float64
	// VolumeHandler returns the volume handler bound to the given side of
	// the surface (true = same side as the surface normal), or nil.
	VolumeHandler(side bool) VolumeHandler
	// Lobes returns the fixed set of BSDF components this material can
	// ever produce, independent of the hit point -- used by the photon
	// pass to classify a bounce as diffuse/glossy/specular for the
	// caustic/diffuse map deposit rules (spec.md §4.3) without having to
	// re-sample or re-evaluate the BSDF just to find out.
	Lobes() Flags
}

// DispersiveMaterial is implemented by materials whose specular response
// varies with wavelength. The recursive integrator splits its chromatic
// specular chain into per-wavelength sub-samples through it instead of
// the fixed-IOR Specular call (spec.md §4.2 "Dispersive BSDF").
type DispersiveMaterial interface {
	// SpecularDispersive is Specular evaluated at a single normalized
	// wavelength in [0,1) across the visible range; the caller applies the
	// wl2rgb collapse itself.
	SpecularDispersive(sp geometry.SurfacePoint, wo vec3.Vec3, lambdaNorm float64) (reflect, refract *SpecularRay)
}

// VolumeHandler is spec.md §2.6's contract for participating media bound to
// a material's interior/exterior.
type VolumeHandler interface {
	// Transmittance returns the fraction of radiance surviving dist along
	// ray through the medium.
	Transmittance(r geometry.Ray, dist float64) color.RGB
	// Scatter attempts an in-scattering event; ok is false when the photon
	// (or ray) should continue unscattered (absorption is folded into
	// Transmittance, not signalled here).
	Scatter(r geometry.Ray, u1, u2, u3 float64) (newDir vec3.Vec3, weight color.RGB, ok bool)
}

// VolumeSide selects which of a material's two volume handlers (interior,
// exterior) applies, following original_source/volume_handler.h's
// `sp.ng · ray.dir < 0` rule recovered in SPEC_FULL.md §5: it is true for a
// ray entering the surface (moving against the geometric normal), i.e. one
// arriving from the side the normal points to.
func VolumeSide(geoNormal, rayDir vec3.Vec3) bool {
	return geoNormal.Dot(rayDir) < 0
}
