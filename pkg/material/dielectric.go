package material

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Dielectric is a perfectly smooth refractive/reflective (glass) material,
// splitting energy between a Fresnel-weighted reflect and refract ray
// (spec.md §4.2 "up to one reflect ray + one refract ray... refraction
// preserves alpha through the chain"). Camera paths follow both branches
// analytically via Specular/SpecularDispersive; photon paths draw one
// branch stochastically via Sample. When AbbeNumber is non-zero the index
// of refraction varies with wavelength (spec.md §4.2 "Dispersive BSDF"),
// via a two-term Cauchy approximation.
type Dielectric struct {
	IOR        float64 // index of refraction at the reference wavelength (587.6nm)
	AbbeNumber float64 // 0 disables dispersion
	Filter     color.RGB
	// Interior is the participating medium bound to the inside of the
	// glass (spec.md §2.6; nil means clear glass with no absorption). The
	// recursive integrator and the photon pass both apply it via
	// VolumeHandler once a ray/photon is travelling through this side of
	// the surface (original_source/volume_handler.h "sp.ng · ray.dir < 0").
	Interior VolumeHandler
}

var _ DispersiveMaterial = (*Dielectric)(nil)

func (m *Dielectric) InitBSDF(sp geometry.SurfacePoint) BSDFData { return nil }

func (m *Dielectric) Eval(geometry.SurfacePoint, BSDFData, vec3.Vec3, vec3.Vec3, Flags) color.RGB {
	return color.Black
}

// Sample draws one of the two delta branches (Fresnel-weighted reflect or
// refract) so photon paths can cross the glass (spec.md §4.3's scatter
// flags include ALL_SPECULAR). f carries the chosen branch's full
// throughput and pdf its selection probability; callers must not apply a
// cosine factor to a delta lobe. The refract branch reports the
// Dispersive lobe when dispersion is enabled, which is what triggers the
// caller's wl2rgb collapse and chromatic-state transition.
func (m *Dielectric) Sample(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3, u1, u2 float64, flags Flags) (vec3.Vec3, color.RGB, float64, Flags) {
	if !flags.Any(Specular) {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	refl, refr := m.specularAt(sp, wo, m.IOR)
	if refr == nil {
		return refl.Dir, refl.Color, 1, Specular | Reflect
	}
	total := refl.Color.Luminance() + refr.Color.Luminance()
	if total <= 0 {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	pReflect := refl.Color.Luminance() / total
	if u1 < pReflect {
		return refl.Dir, refl.Color, pReflect, Specular | Reflect
	}
	sampled := Specular | Transmit
	if m.AbbeNumber > 0 {
		sampled |= Dispersive
	}
	return refr.Dir, refr.Color, 1 - pReflect, sampled
}

func (m *Dielectric) Pdf(geometry.SurfacePoint, BSDFData, vec3.Vec3, vec3.Vec3, Flags) float64 {
	return 0
}

// IORAt returns the index of refraction at the given normalized wavelength
// (spec.md §4.2 dispersive split, 0..1 across the visible range), using the
// two-term Cauchy dispersion formula parameterised by the Abbe number; IOR
// is returned unmodified when dispersion is disabled.
func (m *Dielectric) IORAt(lambdaNorm float64) float64 {
	if m.AbbeNumber <= 0 {
		return m.IOR
	}
	nm := 380 + lambdaNorm*(780-380)
	const refNm = 587.6
	b := (m.IOR - 1) / m.AbbeNumber * 0.52345 // Cauchy B coefficient fit to the Abbe relation
	invLsq := func(l float64) float64 { return 1e6 / (l * l) }
	return m.IOR + b*(invLsq(nm)-invLsq(refNm))
}

func (m *Dielectric) Specular(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) (*SpecularRay, *SpecularRay) {
	return m.specularAt(sp, wo, m.IOR)
}

// SpecularDispersive is the wavelength-aware variant of Specular, used by
// the recursive integrator's dispersive-BSDF sub-sample loop (spec.md
// §4.2, §4.3 "on the first dispersive scatter... multiply power by
// wl2rgb(λ)"); the caller applies the wl2rgb collapse itself.
func (m *Dielectric) SpecularDispersive(sp geometry.SurfacePoint, wo vec3.Vec3, lambdaNorm float64) (*SpecularRay, *SpecularRay) {
	return m.specularAt(sp, wo, m.IORAt(lambdaNorm))
}

func (m *Dielectric) specularAt(sp geometry.SurfacePoint, wo vec3.Vec3, ior float64) (*SpecularRay, *SpecularRay) {
	n := sp.GeoNormal
	entering := n.Dot(wo) > 0
	nl := n
	eta := 1 / ior
	if !entering {
		nl = n.Neg()
		eta = ior
	}
	cosI := nl.Dot(wo)
	i := wo.Neg()
	refr, ok := vec3.Refract(i, nl, eta)
	fresnel := schlick(cosI, eta)

	reflect := &SpecularRay{Dir: vec3.Reflect(i, nl), Color: m.Filter.Mul(fresnel)}
	if !ok {
		// total internal reflection: all energy goes into the reflect ray.
		reflect.Color = m.Filter
		return reflect, nil
	}
	refract := &SpecularRay{Dir: refr, Color: m.Filter.Mul(1 - fresnel)}
	return reflect, refract
}

// schlick is the Schlick Fresnel reflectance approximation at the given
// cosine of the incident angle and relative IOR eta = n1/n2.
func schlick(cosI, eta float64) float64 {
	r0 := (1 - eta) / (1 + eta)
	r0 *= r0
	x := 1 - cosI
	return r0 + (1-r0)*x*x*x*x*x
}

func (m *Dielectric) Emit(geometry.SurfacePoint, BSDFData, vec3.Vec3) color.RGB { return color.Black }

func (m *Dielectric) Alpha(geometry.SurfacePoint, BSDFData, vec3.Vec3) float64 { return 0 }

// VolumeHandler returns the glass's interior medium for a ray arriving
// from inside the glass (VolumeSide==false: moving along the outward
// geometric normal, so the segment it just travelled lies in the interior)
// and nil for a ray arriving from outside -- the ambient medium outside a
// dielectric is assumed vacuum with no external collaborator.
func (m *Dielectric) VolumeHandler(side bool) VolumeHandler {
	if !side {
		return m.Interior
	}
	return nil
}

func (m *Dielectric) Lobes() Flags {
	f := Specular | Reflect | Transmit
	if m.AbbeNumber > 0 {
		f |= Dispersive
	}
	return f
}
