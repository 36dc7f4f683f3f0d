package geometry

import (
	"math"

	"github.com/yafaray/yafacore/pkg/vec3"
)

// Sphere is the analytic-sphere primitive variant of spec.md §2.1,
// grounded on include/geometry/primitive/primitive_sphere.h: a center,
// radius, owning object and bound material, with no polygonal
// approximation.
type Sphere struct {
	Center vec3.Vec3
	Radius float64
	MatID  MaterialID
	ObjID  ObjectID
}

func (s *Sphere) Bound() Bound {
	r := vec3.New(s.Radius, s.Radius, s.Radius)
	return Bound{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

func (s *Sphere) Area() float64 { return 4 * math.Pi * s.Radius * s.Radius }

func (s *Sphere) Material() MaterialID { return s.MatID }
func (s *Sphere) Object() ObjectID     { return s.ObjID }

func (s *Sphere) FaceNormal() vec3.Vec3 { return vec3.New(0, 0, 1) } // undefined without a hit point

func (s *Sphere) Intersect(r Ray, tMin, tMax float64) IntersectData {
	oc := r.From.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	halfB := oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return IntersectData{}
	}
	sq := math.Sqrt(disc)
	t := (-halfB - sq) / a
	if t <= tMin || t > tMax {
		t = (-halfB + sq) / a
		if t <= tMin || t > tMax {
			return IntersectData{}
		}
	}
	hitP := r.At(t)
	local := hitP.Sub(s.Center)
	u, v := sphereUV(local, s.Radius)
	return IntersectData{Hit: true, THit: t, U: u, V: v, Primitive: s}
}

func sphereUV(local vec3.Vec3, radius float64) (u, v float64) {
	theta := math.Acos(clampf(local.Z/radius, -1, 1))
	phi := math.Atan2(local.Y, local.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi / (2 * math.Pi), theta / math.Pi
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Sphere) SurfaceData(r Ray, hit IntersectData) SurfacePoint {
	p := r.At(hit.THit)
	n := p.Sub(s.Center).Mul(1 / s.Radius)
	dpdu := vec3.New(-2*math.Pi*n.Y, 2*math.Pi*n.X, 0)
	return SurfacePoint{
		Position:  p,
		GeoNormal: n,
		Normal:    n,
		U:         hit.U,
		V:         hit.V,
		DpDu:      dpdu,
		DpDv:      n.Cross(dpdu),
		Material:  s.MatID,
		Object:    s.ObjID,
		Primitive: s,
	}
}

// Sample draws a uniform point on the sphere surface.
func (s *Sphere) Sample(u1, u2 float64) (vec3.Vec3, vec3.Vec3) {
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	n := vec3.New(r*math.Cos(phi), r*math.Sin(phi), z)
	return s.Center.Add(n.Mul(s.Radius)), n
}

// ClipToBound intersects the sphere's own axis-aligned bound against box;
// spheres have no cheaper exact clip, so this degrades to bound-on-bound
// intersection (still tighter than leaving the child bound unclipped).
func (s *Sphere) ClipToBound(box Bound) (Bound, bool) {
	sb := s.Bound()
	out := Bound{
		Min: vec3.New(math.Max(sb.Min.X, box.Min.X), math.Max(sb.Min.Y, box.Min.Y), math.Max(sb.Min.Z, box.Min.Z)),
		Max: vec3.New(math.Min(sb.Max.X, box.Max.X), math.Min(sb.Max.Y, box.Max.Y), math.Min(sb.Max.Z, box.Max.Z)),
	}
	if out.Min.X > out.Max.X || out.Min.Y > out.Max.Y || out.Min.Z > out.Max.Z {
		return Bound{}, false
	}
	return out, true
}
