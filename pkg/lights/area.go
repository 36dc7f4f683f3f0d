package lights

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Area is an axis-free rectangular area light spanning Corner + u*EdgeU +
// v*EdgeV for u,v in [0,1], emitting Radiance from its front face (the
// side EdgeU x EdgeV points towards), per spec.md §8 scenarios S3/S5.
type Area struct {
	Corner         vec3.Vec3
	EdgeU, EdgeV   vec3.Vec3
	Radiance       color.RGB
	DoubleSided    bool
}

func (l *Area) normal() vec3.Vec3 { return l.EdgeU.Cross(l.EdgeV).Unit() }
func (l *Area) area() float64     { return l.EdgeU.Cross(l.EdgeV).Length() }

func (l *Area) samplePoint(u1, u2 float64) vec3.Vec3 {
	return l.Corner.Add(l.EdgeU.Mul(u1)).Add(l.EdgeV.Mul(u2))
}

// toSample builds an IlluminateSample from sp towards a point on the light
// surface with the given light-surface normal, converting the uniform
// area-measure pdf to solid-angle measure.
func (l *Area) toSample(sp geometry.SurfacePoint, p, n vec3.Vec3) (IlluminateSample, bool) {
	d := p.Sub(sp.Position)
	dist2 := d.LengthSquared()
	if dist2 <= 0 {
		return IlluminateSample{}, false
	}
	dist := math.Sqrt(dist2)
	wi := d.Mul(1 / dist)
	cosLight := n.Dot(wi.Neg())
	if !l.DoubleSided && cosLight <= 0 {
		return IlluminateSample{}, false
	}
	cosLight = math.Abs(cosLight)
	area := l.area()
	if area <= 0 || cosLight <= 1e-9 {
		return IlluminateSample{}, false
	}
	pdfArea := 1 / area
	pdfSolid := pdfArea * dist2 / cosLight
	return IlluminateSample{Wi: wi, Dist: dist, Pdf: pdfSolid, Color: l.Radiance}, true
}

func (l *Area) Illuminate(sp geometry.SurfacePoint) (IlluminateSample, bool) {
	return l.toSample(sp, l.samplePoint(0.5, 0.5), l.normal())
}

func (l *Area) IllumSample(sp geometry.SurfacePoint, u1, u2 float64) (IlluminateSample, bool) {
	return l.toSample(sp, l.samplePoint(u1, u2), l.normal())
}

// Intersect implements MIS's BSDF-sampling side: it treats r as having
// been sampled from a BSDF and reports whether it lands on the light's
// rectangle, with the matching solid-angle pdf (spec.md §4.2 "when the
// light is intersectable").
func (l *Area) Intersect(r geometry.Ray, tMax float64) (float64, color.RGB, float64, bool) {
	n := l.normal()
	denom := n.Dot(r.Dir)
	if math.Abs(denom) < 1e-9 {
		return 0, color.Black, 0, false
	}
	t := l.Corner.Sub(r.From).Dot(n) / denom
	if t <= r.TMin || t > tMax {
		return 0, color.Black, 0, false
	}
	p := r.At(t)
	rel := p.Sub(l.Corner)
	lenU, lenV := l.EdgeU.Length(), l.EdgeV.Length()
	u := rel.Dot(l.EdgeU) / (lenU * lenU)
	v := rel.Dot(l.EdgeV) / (lenV * lenV)
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, color.Black, 0, false
	}
	cosLight := n.Dot(r.Dir.Neg())
	if !l.DoubleSided && cosLight <= 0 {
		return 0, color.Black, 0, false
	}
	cosLight = math.Abs(cosLight)
	area := l.area()
	if area <= 0 || cosLight <= 1e-9 {
		return 0, color.Black, 0, false
	}
	pdfSolid := (1 / area) * t * t / cosLight
	return t, l.Radiance, pdfSolid, true
}

func (l *Area) EmitPhoton(u1, u2, u3, u4, t float64) (geometry.Ray, float64, float64, color.RGB) {
	n := l.normal()
	p := l.samplePoint(u1, u2)
	tng, btn := vec3.Basis(n)
	dir := cosineSampleHemisphereLights(u3, u4, tng, btn, n)
	r := geometry.NewRay(p, dir)
	area := l.area()
	areaPdf := 1 / math.Max(area, 1e-12)
	dirPdf := dir.Dot(n) / math.Pi
	return r, areaPdf, dirPdf, l.Radiance
}

func (l *Area) TotalEnergy() color.RGB {
	e := l.Radiance.Mul(l.area() * math.Pi)
	if l.DoubleSided {
		e = e.Mul(2)
	}
	return e
}
func (l *Area) IsDelta() bool          { return false }
func (l *Area) IsSingular() bool       { return false }
func (l *Area) CastsCausticPhotons() bool { return true }

func cosineSampleHemisphereLights(u1, u2 float64, t, b, n vec3.Vec3) vec3.Vec3 {
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	x, y := r*math.Cos(phi), r*math.Sin(phi)
	z := math.Sqrt(math.Max(0, 1-u1))
	return t.Mul(x).Add(b.Mul(y)).Add(n.Mul(z))
}
