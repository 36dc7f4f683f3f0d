package geometry

import (
	"math"

	"github.com/yafaray/yafacore/pkg/vec3"
)

// Bound is an axis-aligned bounding box (spec.md §3 "Bound"). Invariant:
// Min[i] <= Max[i] for all axes (an empty bound violates this and is only
// ever produced transiently by NewEmptyBound before the first Extend).
type Bound struct {
	Min, Max vec3.Vec3
}

// NewEmptyBound returns a bound ready to be grown via Extend/Union; it must
// not be queried before at least one Extend call.
func NewEmptyBound() Bound {
	return Bound{
		Min: vec3.New(math.Inf(1), math.Inf(1), math.Inf(1)),
		Max: vec3.New(math.Inf(-1), math.Inf(-1), math.Inf(-1)),
	}
}

// Extend grows the bound to include point p.
func (b Bound) Extend(p vec3.Vec3) Bound {
	return Bound{
		Min: vec3.New(math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)),
		Max: vec3.New(math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)),
	}
}

// Union returns the smallest bound containing both b and o.
func (b Bound) Union(o Bound) Bound {
	return Bound{
		Min: vec3.New(math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)),
		Max: vec3.New(math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)),
	}
}

// Inflate grows the bound symmetrically on every axis by the given
// fraction of its extent on that axis. Used once at accelerator build time
// to "kill coplanar ties" per spec.md §4.1 step 1 (0.1%).
func (b Bound) Inflate(fraction float64) Bound {
	d := b.Max.Sub(b.Min)
	pad := d.Mul(fraction)
	return Bound{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// Extent returns Max-Min.
func (b Bound) Extent() vec3.Vec3 { return b.Max.Sub(b.Min) }

// SurfaceArea returns the surface area of the box, used by the SAH cost
// function (spec.md §4.1 step c).
func (b Bound) SurfaceArea() float64 {
	d := b.Extent()
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// LongestAxis returns the axis along which the box has the greatest extent.
func (b Bound) LongestAxis() vec3.Axis {
	d := b.Extent()
	if d.X > d.Y && d.X > d.Z {
		return vec3.AxisX
	}
	if d.Y > d.Z {
		return vec3.AxisY
	}
	return vec3.AxisZ
}

// Contains reports whether p lies within the bound (inclusive).
func (b Bound) Contains(p vec3.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Split returns the two children of splitting b at position pos along axis
// a, used while descending the kd-tree build recursion.
func (b Bound) Split(a vec3.Axis, pos float64) (left, right Bound) {
	left, right = b, b
	left.Max = left.Max.With(a, pos)
	right.Min = right.Min.With(a, pos)
	return left, right
}

// Cross is the result of clipping a ray against a bound: whether it
// crossed at all, and at what parametric distances.
type Cross struct {
	Crossed      bool
	Enter, Leave float64
}

// Intersect computes the [enter, leave] parametric interval of ray r
// against b, clipped to [r.TMin, tMax]. NaN inverse directions (a
// perpendicular ray component) are treated as +/-Inf per spec.md §4.1
// "Traversal must be robust to NaN inv_dir".
func (b Bound) Intersect(r Ray, tMax float64) Cross {
	tEnter, tLeave := r.TMin, tMax
	for _, axis := range [3]vec3.Axis{vec3.AxisX, vec3.AxisY, vec3.AxisZ} {
		origin := r.From.Get(axis)
		dir := r.Dir.Get(axis)
		invDir := safeInverse(dir)
		t0 := (b.Min.Get(axis) - origin) * invDir
		t1 := (b.Max.Get(axis) - origin) * invDir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tEnter {
			tEnter = t0
		}
		if t1 < tLeave {
			tLeave = t1
		}
		if tEnter > tLeave {
			return Cross{}
		}
	}
	return Cross{Crossed: true, Enter: tEnter, Leave: tLeave}
}

func safeInverse(d float64) float64 {
	if d == 0 {
		return math.Inf(1)
	}
	return 1 / d
}
