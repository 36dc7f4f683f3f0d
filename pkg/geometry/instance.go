package geometry

import "github.com/yafaray/yafacore/pkg/vec3"

// Instance wraps a base primitive with an object-to-world transform; all
// queries forward through the transform (spec.md §2.1 "Instances wrap a
// base primitive with an object-to-world transform"). Per spec.md §3, the
// instance holds a shared, non-owning reference to the base primitive plus
// an owned affine transform; ToObj is inverted once in NewInstance so
// traversal never re-inverts a matrix per query.
type Instance struct {
	Base    Primitive
	ToWorld vec3.Matrix4
	ToObj   vec3.Matrix4 // == ToWorld.Inverse(), cached
	MatID   MaterialID   // overrides Base's material when >= 0
	ObjID   ObjectID
}

// NewInstance builds an instance, precomputing the inverse transform once.
func NewInstance(base Primitive, toWorld vec3.Matrix4, objID ObjectID, matOverride MaterialID) *Instance {
	return &Instance{Base: base, ToWorld: toWorld, ToObj: toWorld.Inverse(), MatID: matOverride, ObjID: objID}
}

func (in *Instance) Bound() Bound {
	local := in.Base.Bound()
	// transform all 8 corners; the instance's own getBound must fully
	// enclose the geometry under the world transform (spec.md §3).
	b := NewEmptyBound()
	for i := 0; i < 8; i++ {
		corner := vec3.New(
			pick(i&1 != 0, local.Min.X, local.Max.X),
			pick(i&2 != 0, local.Min.Y, local.Max.Y),
			pick(i&4 != 0, local.Min.Z, local.Max.Z),
		)
		b = b.Extend(in.ToWorld.TransformPoint(corner))
	}
	return b
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return b
	}
	return a
}

func (in *Instance) Intersect(r Ray, tMin, tMax float64) IntersectData {
	localRay := Ray{
		From: in.ToObj.TransformPoint(r.From),
		Dir:  in.ToObj.TransformVector(r.Dir),
		TMin: tMin, TMax: tMax, Time: r.Time, Diffs: r.Diffs,
	}
	hit := in.Base.Intersect(localRay, tMin, tMax)
	if hit.Hit {
		hit.Primitive = in
	}
	return hit
}

func (in *Instance) SurfaceData(r Ray, hit IntersectData) SurfacePoint {
	localRay := Ray{From: in.ToObj.TransformPoint(r.From), Dir: in.ToObj.TransformVector(r.Dir), Time: r.Time}
	localHit := hit
	localHit.Primitive = in.Base
	sp := in.Base.SurfaceData(localRay, localHit)
	sp.Position = in.ToWorld.TransformPoint(sp.Position)
	sp.GeoNormal = in.ToObj.TransformNormal(sp.GeoNormal).Unit()
	sp.Normal = in.ToObj.TransformNormal(sp.Normal).Unit()
	sp.DpDu = in.ToWorld.TransformVector(sp.DpDu)
	sp.DpDv = in.ToWorld.TransformVector(sp.DpDv)
	sp.Primitive = in
	sp.Object = in.ObjID
	if in.MatID >= 0 {
		sp.Material = in.MatID
	}
	return sp
}

func (in *Instance) Sample(u, v float64) (vec3.Vec3, vec3.Vec3) {
	p, n := in.Base.Sample(u, v)
	return in.ToWorld.TransformPoint(p), in.ToObj.TransformNormal(n).Unit()
}

// Area approximates world-space area via the average of the transform's
// axis scale factors; exact for similarity transforms (uniform scale +
// rotation + translation), which covers the instancing use cases spec.md
// targets (object duplication with placement).
func (in *Instance) Area() float64 {
	sx := in.ToWorld.TransformVector(vec3.New(1, 0, 0)).Length()
	sy := in.ToWorld.TransformVector(vec3.New(0, 1, 0)).Length()
	sz := in.ToWorld.TransformVector(vec3.New(0, 0, 1)).Length()
	avgScale2 := (sx*sy + sy*sz + sz*sx) / 3
	return in.Base.Area() * avgScale2
}

func (in *Instance) FaceNormal() vec3.Vec3 {
	return in.ToObj.TransformNormal(in.Base.FaceNormal()).Unit()
}

func (in *Instance) Material() MaterialID {
	if in.MatID >= 0 {
		return in.MatID
	}
	return in.Base.Material()
}

func (in *Instance) Object() ObjectID { return in.ObjID }

// ClipToBound forwards to the base primitive in object space when it
// supports clipping, transforming the result back to world space; this is
// a conservative approximation (transforming a clipped AABB can overgrow
// it slightly under rotation), acceptable for a build-time-only
// optimisation per spec.md §4.1 step e.
func (in *Instance) ClipToBound(box Bound) (Bound, bool) {
	clippable, ok := in.Base.(Clippable)
	if !ok {
		b := in.Bound()
		out := Bound{
			Min: maxVec(b.Min, box.Min),
			Max: minVec(b.Max, box.Max),
		}
		if out.Min.X > out.Max.X || out.Min.Y > out.Max.Y || out.Min.Z > out.Max.Z {
			return Bound{}, false
		}
		return out, true
	}
	localBox := Bound{Min: in.ToObj.TransformPoint(box.Min), Max: in.ToObj.TransformPoint(box.Max)}
	localBox = normalizeBound(localBox)
	clipped, ok := clippable.ClipToBound(localBox)
	if !ok {
		return Bound{}, false
	}
	worldBound := NewEmptyBound()
	for i := 0; i < 8; i++ {
		corner := vec3.New(
			pick(i&1 != 0, clipped.Min.X, clipped.Max.X),
			pick(i&2 != 0, clipped.Min.Y, clipped.Max.Y),
			pick(i&4 != 0, clipped.Min.Z, clipped.Max.Z),
		)
		worldBound = worldBound.Extend(in.ToWorld.TransformPoint(corner))
	}
	return worldBound, true
}

func normalizeBound(b Bound) Bound {
	return Bound{
		Min: minVec(b.Min, b.Max),
		Max: maxVec(b.Min, b.Max),
	}
}

func minVec(a, b vec3.Vec3) vec3.Vec3 {
	return vec3.New(minf(a.X, b.X), minf(a.Y, b.Y), minf(a.Z, b.Z))
}
func maxVec(a, b vec3.Vec3) vec3.Vec3 {
	return vec3.New(maxf(a.X, b.X), maxf(a.Y, b.Y), maxf(a.Z, b.Z))
}
func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
