package lights

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Directional is a delta light emitting parallel rays, used by spec.md §8
// scenario S2. Direction points FROM the light TOWARDS the scene.
type Directional struct {
	Direction vec3.Vec3 // unit; the direction light travels
	Radiance  color.RGB
	WorldSize float64 // world bounding radius, for photon-emission disk sampling
}

func (l *Directional) toLight() vec3.Vec3 { return l.Direction.Neg() }

// Preprocess records the scene's bounding radius as the disk radius used
// by EmitPhoton, the way the teacher's infinite lights recompute their
// world-size field during Scene.Preprocess rather than at construction.
func (l *Directional) Preprocess(worldCenter vec3.Vec3, worldRadius float64) {
	l.WorldSize = worldRadius
}

func (l *Directional) Illuminate(sp geometry.SurfacePoint) (IlluminateSample, bool) {
	return IlluminateSample{Wi: l.toLight(), Dist: geometry.Infinity, Pdf: 1, Color: l.Radiance}, true
}

func (l *Directional) IllumSample(sp geometry.SurfacePoint, u1, u2 float64) (IlluminateSample, bool) {
	return l.Illuminate(sp)
}

func (l *Directional) Intersect(r geometry.Ray, tMax float64) (float64, color.RGB, float64, bool) {
	return 0, color.Black, 0, false
}

func (l *Directional) EmitPhoton(u1, u2, u3, u4, t float64) (geometry.Ray, float64, float64, color.RGB) {
	tng, btn := vec3.Basis(l.Direction)
	radius := math.Sqrt(u1) * l.WorldSize
	phi := 2 * math.Pi * u2
	disk := tng.Mul(radius * math.Cos(phi)).Add(btn.Mul(radius * math.Sin(phi)))
	origin := disk.Sub(l.Direction.Mul(l.WorldSize))
	r := geometry.NewRay(origin, l.Direction)
	area := math.Pi * l.WorldSize * l.WorldSize
	areaPdf := 1 / math.Max(area, 1e-12)
	return r, areaPdf, 1, l.Radiance
}

func (l *Directional) TotalEnergy() color.RGB {
	area := math.Pi * l.WorldSize * l.WorldSize
	return l.Radiance.Mul(area)
}
func (l *Directional) IsDelta() bool          { return true }
func (l *Directional) IsSingular() bool       { return true }
func (l *Directional) CastsCausticPhotons() bool { return true }
