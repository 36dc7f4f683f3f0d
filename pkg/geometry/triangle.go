package geometry

import (
	"math"

	"github.com/yafaray/yafacore/pkg/vec3"
)

// Triangle is the mesh-face primitive variant of spec.md §2.1 ("concrete
// variants include triangle-face"). The triangle stores its own copies of
// the vertex positions, shading normals and UVs, plus its material/object
// binding.
type Triangle struct {
	V0, V1, V2    vec3.Vec3
	N0, N1, N2    vec3.Vec3 // per-vertex shading normals
	UV0, UV1, UV2 [2]float64
	MatID         MaterialID
	ObjID         ObjectID
}

func (t *Triangle) Bound() Bound {
	b := NewEmptyBound()
	return b.Extend(t.V0).Extend(t.V1).Extend(t.V2)
}

func (t *Triangle) FaceNormal() vec3.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Unit()
}

func (t *Triangle) Area() float64 {
	return 0.5 * t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Length()
}

func (t *Triangle) Material() MaterialID { return t.MatID }
func (t *Triangle) Object() ObjectID     { return t.ObjID }

// Intersect implements the Möller-Trumbore ray-triangle test.
func (t *Triangle) Intersect(r Ray, tMin, tMax float64) IntersectData {
	const eps = 1e-9
	e1 := t.V1.Sub(t.V0)
	e2 := t.V2.Sub(t.V0)
	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < eps {
		return IntersectData{}
	}
	invDet := 1 / det
	tvec := r.From.Sub(t.V0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return IntersectData{}
	}
	qvec := tvec.Cross(e1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return IntersectData{}
	}
	dist := e2.Dot(qvec) * invDet
	if dist <= tMin || dist > tMax {
		return IntersectData{}
	}
	return IntersectData{Hit: true, THit: dist, U: u, V: v, Primitive: t}
}

func (t *Triangle) SurfaceData(r Ray, hit IntersectData) SurfacePoint {
	u, v := hit.U, hit.V
	w := 1 - u - v
	p := r.At(hit.THit)
	shading := t.N0.Mul(w).Add(t.N1.Mul(u)).Add(t.N2.Mul(v)).Unit()
	geo := t.FaceNormal()
	return SurfacePoint{
		Position:  p,
		GeoNormal: geo,
		Normal:    shading,
		U:         t.UV0[0]*w + t.UV1[0]*u + t.UV2[0]*v,
		V:         t.UV0[1]*w + t.UV1[1]*u + t.UV2[1]*v,
		DpDu:      t.V1.Sub(t.V0),
		DpDv:      t.V2.Sub(t.V0),
		Material:  t.MatID,
		Object:    t.ObjID,
		Primitive: t,
	}
}

// Sample draws a uniform point on the triangle via the standard
// square-root barycentric mapping.
func (t *Triangle) Sample(u1, u2 float64) (vec3.Vec3, vec3.Vec3) {
	su := math.Sqrt(u1)
	b0 := 1 - su
	b1 := u2 * su
	p := t.V0.Mul(b0).Add(t.V1.Mul(b1)).Add(t.V2.Mul(1 - b0 - b1))
	return p, t.FaceNormal()
}

// ClipToBound implements exact triangle-box overlap via Sutherland-Hodgman
// polygon clipping against each of the box's six planes, matching spec.md
// §4.1 step e's "primitives that support clipping compute their exact
// overlap with the candidate child box".
func (t *Triangle) ClipToBound(box Bound) (Bound, bool) {
	poly := []vec3.Vec3{t.V0, t.V1, t.V2}
	for _, axis := range [3]vec3.Axis{vec3.AxisX, vec3.AxisY, vec3.AxisZ} {
		poly = clipPolyPlane(poly, axis, box.Min.Get(axis), true)
		if len(poly) == 0 {
			return Bound{}, false
		}
		poly = clipPolyPlane(poly, axis, box.Max.Get(axis), false)
		if len(poly) == 0 {
			return Bound{}, false
		}
	}
	b := NewEmptyBound()
	for _, p := range poly {
		b = b.Extend(p)
	}
	return b, true
}

// clipPolyPlane clips a convex polygon against the half-space
// (coord >= limit) when keepAbove is true, else (coord <= limit).
func clipPolyPlane(poly []vec3.Vec3, axis vec3.Axis, limit float64, keepAbove bool) []vec3.Vec3 {
	if len(poly) == 0 {
		return nil
	}
	inside := func(p vec3.Vec3) bool {
		c := p.Get(axis)
		if keepAbove {
			return c >= limit
		}
		return c <= limit
	}
	var out []vec3.Vec3
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curIn := inside(cur)
		prevIn := inside(prev)
		if curIn != prevIn {
			t := (limit - prev.Get(axis)) / (cur.Get(axis) - prev.Get(axis))
			out = append(out, prev.Add(cur.Sub(prev).Mul(t)))
		}
		if curIn {
			out = append(out, cur)
		}
	}
	return out
}
