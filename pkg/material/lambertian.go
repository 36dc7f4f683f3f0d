package material

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Lambertian is a perfectly diffuse (Oren-Nayar-free) BSDF, the baseline
// material every direct-lighting and SPPM gather path exercises.
type Lambertian struct {
	Albedo  color.RGB
	Emitted color.RGB // non-zero only when used as a mesh light surface
}

func (m *Lambertian) InitBSDF(sp geometry.SurfacePoint) BSDFData { return nil }

func (m *Lambertian) Eval(sp geometry.SurfacePoint, _ BSDFData, wo, wi vec3.Vec3, flags Flags) color.RGB {
	if !flags.Has(FlagDiffuse) {
		return color.Black
	}
	if sp.Normal.Dot(wi) <= 0 || sp.Normal.Dot(wo) <= 0 {
		return color.Black
	}
	return m.Albedo.Mul(1 / math.Pi)
}

func (m *Lambertian) Sample(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3, u1, u2 float64, flags Flags) (vec3.Vec3, color.RGB, float64, Flags) {
	if !flags.Has(FlagDiffuse) {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	t, b := vec3.Basis(sp.Normal)
	wi := cosineSampleHemisphere(u1, u2, t, b, sp.Normal)
	pdf := wi.Dot(sp.Normal) / math.Pi
	if pdf <= 0 {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	return wi, m.Albedo.Mul(1 / math.Pi), pdf, FlagDiffuse
}

func (m *Lambertian) Pdf(sp geometry.SurfacePoint, _ BSDFData, wo, wi vec3.Vec3, flags Flags) float64 {
	if !flags.Has(FlagDiffuse) || sp.Normal.Dot(wi) <= 0 {
		return 0
	}
	return sp.Normal.Dot(wi) / math.Pi
}

func (m *Lambertian) Specular(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) (*SpecularRay, *SpecularRay) {
	return nil, nil
}

func (m *Lambertian) Emit(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) color.RGB {
	if sp.Normal.Dot(wo) <= 0 {
		return color.Black
	}
	return m.Emitted
}

func (m *Lambertian) Alpha(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) float64 { return 1 }

func (m *Lambertian) VolumeHandler(side bool) VolumeHandler { return nil }

func (m *Lambertian) Lobes() Flags { return FlagDiffuse }

// cosineSampleHemisphere draws a direction from the cosine-weighted
// hemisphere about n, using orthonormal basis (t,b) via Malley's method.
func cosineSampleHemisphere(u1, u2 float64, t, b, n vec3.Vec3) vec3.Vec3 {
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	x, y := r*math.Cos(phi), r*math.Sin(phi)
	z := math.Sqrt(math.Max(0, 1-u1))
	return t.Mul(x).Add(b.Mul(y)).Add(n.Mul(z))
}
