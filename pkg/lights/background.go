package lights

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Background is the collaborator interface of spec.md §6
// ("Background.eval(ray) -> Rgb"): a ray that escapes the scene accumulates
// this instead of a surface hit.
type Background interface {
	Eval(r geometry.Ray) color.RGB
}

// Uniform is a constant-colour background, doubling as a Light so it can
// also seed a uniform environment illumination pass (spec.md §8 S1 "constant
// background"), the way the teacher's UniformInfiniteLight folds emission
// and lighting into one type.
type Uniform struct {
	Color       color.RGB
	WorldCenter vec3.Vec3
	WorldRadius float64
}

func (b *Uniform) Eval(geometry.Ray) color.RGB { return b.Color }

// Preprocess records the scene's bounding sphere, used to place emitted
// photon rays far enough outside the scene (spec.md §9 "global mutable
// state... moves into a Scene builder").
func (b *Uniform) Preprocess(worldCenter vec3.Vec3, worldRadius float64) {
	b.WorldCenter = worldCenter
	b.WorldRadius = worldRadius
}

func (b *Uniform) Illuminate(sp geometry.SurfacePoint) (IlluminateSample, bool) {
	return b.IllumSample(sp, 0.5, 0.5)
}

func (b *Uniform) IllumSample(sp geometry.SurfacePoint, u1, u2 float64) (IlluminateSample, bool) {
	t, bb := vec3.Basis(sp.Normal)
	dir := cosineSampleHemisphereLights(u1, u2, t, bb, sp.Normal)
	cosTheta := dir.Dot(sp.Normal)
	if cosTheta <= 0 {
		return IlluminateSample{}, false
	}
	return IlluminateSample{Wi: dir, Dist: geometry.Infinity, Pdf: cosTheta / math.Pi, Color: b.Color}, true
}

func (b *Uniform) Intersect(r geometry.Ray, tMax float64) (float64, color.RGB, float64, bool) {
	if tMax < geometry.Infinity {
		return 0, color.Black, 0, false
	}
	cosTheta := r.Dir.Dot(vec3.New(0, 1, 0))
	pdf := 0.0
	if cosTheta > 0 {
		pdf = cosTheta / math.Pi
	}
	return geometry.Infinity, b.Color, pdf, true
}

// EmitPhoton samples a disk perpendicular to a uniformly chosen direction,
// scaled by the scene's bounding radius, the same construction Directional
// uses for a parallel-ray source (spec.md §4.3 emission contract).
func (b *Uniform) EmitPhoton(u1, u2, u3, u4, t float64) (geometry.Ray, float64, float64, color.RGB) {
	dir := uniformSphere(u1, u2).Neg()
	radius := b.WorldRadius
	if radius <= 0 {
		radius = 1
	}
	dt, db := vec3.Basis(dir)
	diskR := radius * math.Sqrt(u3)
	diskPhi := 2 * math.Pi * u4
	diskPt := dt.Mul(diskR * math.Cos(diskPhi)).Add(db.Mul(diskR * math.Sin(diskPhi)))
	origin := b.WorldCenter.Sub(dir.Mul(radius)).Add(diskPt)
	r := geometry.Ray{From: origin, Dir: dir, TMin: 0, TMax: geometry.Infinity, Time: t}
	areaPdf := 1 / (math.Pi * radius * radius)
	dirPdf := 1 / (4 * math.Pi)
	return r, areaPdf, dirPdf, b.Color
}

func (b *Uniform) TotalEnergy() color.RGB {
	radius := b.WorldRadius
	if radius <= 0 {
		radius = 1
	}
	return b.Color.Mul(math.Pi * radius * radius)
}

func (b *Uniform) IsDelta() bool             { return false }
func (b *Uniform) IsSingular() bool          { return false }
func (b *Uniform) CastsCausticPhotons() bool { return false }
