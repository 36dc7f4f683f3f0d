package material

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Glossy is a Blinn-Phong-style microfacet reflection lobe that may also
// carry a diffuse underlayer and/or a transmissive component, the three
// cases spec.md §4.2 calls out ("pure-reflect, pure-transmit, and
// reflect+transmit materials use distinct sample flags").
type Glossy struct {
	DiffuseColor color.RGB
	GlossyColor  color.RGB
	Exponent     float64 // Phong exponent; higher = sharper highlight
	Reflect      bool
	Transmit     bool
	IOR          float64 // used only when Transmit is set
}

func (m *Glossy) InitBSDF(sp geometry.SurfacePoint) BSDFData { return nil }

func (m *Glossy) Eval(sp geometry.SurfacePoint, _ BSDFData, wo, wi vec3.Vec3, flags Flags) color.RGB {
	n := sp.Normal
	cosI, cosO := n.Dot(wi), n.Dot(wo)
	sameSide := cosI > 0 && cosO > 0
	var out color.RGB
	if flags.Has(FlagDiffuse) && sameSide && !m.DiffuseColor.IsBlack() {
		out = out.Add(m.DiffuseColor.Mul(1 / math.Pi))
	}
	if flags.Has(FlagGlossy) && m.Reflect && sameSide {
		h := wo.Add(wi).Unit()
		cosH := math.Max(0, n.Dot(h))
		norm := (m.Exponent + 2) / (2 * math.Pi)
		out = out.Add(m.GlossyColor.Mul(norm * math.Pow(cosH, m.Exponent)))
	}
	return out
}

func (m *Glossy) Sample(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3, u1, u2 float64, flags Flags) (vec3.Vec3, color.RGB, float64, Flags) {
	n := sp.Normal
	useGlossy := m.Reflect && flags.Has(FlagGlossy)
	useDiffuse := flags.Has(FlagDiffuse) && !m.DiffuseColor.IsBlack()
	if !useGlossy && !useDiffuse {
		return vec3.Vec3{}, color.Black, 0, 0
	}

	t, b := vec3.Basis(n)
	var wi vec3.Vec3
	var sampled Flags
	if useGlossy && (!useDiffuse || u1 < 0.5) {
		if useDiffuse {
			u1 = u1 * 2
		}
		cosTheta := math.Pow(u1, 1/(m.Exponent+1))
		sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
		phi := 2 * math.Pi * u2
		hLocal := vec3.New(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
		h := t.Mul(hLocal.X).Add(b.Mul(hLocal.Y)).Add(n.Mul(hLocal.Z))
		wi = vec3.Reflect(wo.Neg(), h)
		sampled = FlagGlossy
	} else {
		if useDiffuse {
			u1 = (u1 - 0.5) * 2
		}
		wi = cosineSampleHemisphere(u1, u2, t, b, n)
		sampled = FlagDiffuse
	}
	if n.Dot(wi) <= 0 {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	pdf := m.Pdf(sp, nil, wo, wi, flags)
	if pdf <= 0 {
		return vec3.Vec3{}, color.Black, 0, 0
	}
	f := m.Eval(sp, nil, wo, wi, flags)
	return wi, f, pdf, sampled
}

func (m *Glossy) Pdf(sp geometry.SurfacePoint, _ BSDFData, wo, wi vec3.Vec3, flags Flags) float64 {
	n := sp.Normal
	if n.Dot(wi) <= 0 {
		return 0
	}
	var pdf, weight float64
	if flags.Has(FlagDiffuse) && !m.DiffuseColor.IsBlack() {
		pdf += n.Dot(wi) / math.Pi
		weight++
	}
	if m.Reflect && flags.Has(FlagGlossy) {
		h := wo.Add(wi).Unit()
		cosH := math.Max(0, n.Dot(h))
		pdfH := (m.Exponent + 1) / (2 * math.Pi) * math.Pow(cosH, m.Exponent)
		pdfWi := pdfH / (4 * math.Max(1e-6, wo.Dot(h)))
		pdf += pdfWi
		weight++
	}
	if weight == 0 {
		return 0
	}
	return pdf / weight
}

func (m *Glossy) Specular(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) (*SpecularRay, *SpecularRay) {
	if !m.Transmit {
		return nil, nil
	}
	n := sp.GeoNormal
	entering := n.Dot(wo) > 0
	nl, eta := n, 1/m.IOR
	if !entering {
		nl, eta = n.Neg(), m.IOR
	}
	refr, ok := vec3.Refract(wo.Neg(), nl, eta)
	if !ok {
		return nil, nil
	}
	return nil, &SpecularRay{Dir: refr, Color: color.White}
}

func (m *Glossy) Emit(geometry.SurfacePoint, BSDFData, vec3.Vec3) color.RGB { return color.Black }

func (m *Glossy) Alpha(geometry.SurfacePoint, BSDFData, vec3.Vec3) float64 { return 1 }

func (m *Glossy) VolumeHandler(bool) VolumeHandler { return nil }

func (m *Glossy) Lobes() Flags {
	f := Flags(0)
	if !m.DiffuseColor.IsBlack() {
		f |= FlagDiffuse
	}
	if m.Reflect {
		f |= FlagGlossy | Reflect
	}
	if m.Transmit {
		f |= Specular | Transmit
	}
	return f
}
