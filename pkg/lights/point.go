package lights

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Point is an isotropic point light (spec.md §8 scenario S3's occlusion
// test light).
type Point struct {
	Position vec3.Vec3
	Power    color.RGB // radiant power (watts-equivalent), inverse-square falloff
}

func (l *Point) Illuminate(sp geometry.SurfacePoint) (IlluminateSample, bool) {
	d := l.Position.Sub(sp.Position)
	dist2 := d.LengthSquared()
	if dist2 <= 0 {
		return IlluminateSample{}, false
	}
	dist := math.Sqrt(dist2)
	wi := d.Mul(1 / dist)
	return IlluminateSample{Wi: wi, Dist: dist, Pdf: 1, Color: l.Power.Mul(1 / (4 * math.Pi * dist2))}, true
}

func (l *Point) IllumSample(sp geometry.SurfacePoint, u1, u2 float64) (IlluminateSample, bool) {
	return l.Illuminate(sp) // a point light has only one direction to sample
}

func (l *Point) Intersect(r geometry.Ray, tMax float64) (float64, color.RGB, float64, bool) {
	return 0, color.Black, 0, false // zero measure: never hit by a traced ray
}

func (l *Point) EmitPhoton(u1, u2, u3, u4, t float64) (geometry.Ray, float64, float64, color.RGB) {
	dir := uniformSphere(u1, u2)
	r := geometry.NewRay(l.Position, dir)
	areaPdf := 1.0
	dirPdf := 1 / (4 * math.Pi)
	return r, areaPdf, dirPdf, l.Power
}

func (l *Point) TotalEnergy() color.RGB { return l.Power }
func (l *Point) IsDelta() bool          { return true }
func (l *Point) IsSingular() bool       { return true }
func (l *Point) CastsCausticPhotons() bool { return true }

func uniformSphere(u1, u2 float64) vec3.Vec3 {
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	return vec3.New(r*math.Cos(phi), r*math.Sin(phi), z)
}
