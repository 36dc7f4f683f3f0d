// Package geometry implements the capability-set primitives of spec.md §2.1
// (Ray, Bound, Primitive, triangle/sphere/instance variants) and the
// data-model types of spec.md §3 (Ray, IntersectData, Bound, Primitive).
package geometry

import "github.com/yafaray/yafacore/pkg/vec3"

// RayDifferentials carries the auxiliary rays used for texture filtering
// footprint estimation, present only when differentials are enabled
// (spec.md §3 "diffs present iff differentials enabled").
type RayDifferentials struct {
	RxOrigin, RyOrigin       vec3.Vec3
	RxDirection, RyDirection vec3.Vec3
}

// Ray is the fundamental query object threaded through intersect/traversal.
// Invariants per spec.md §3: ‖Dir‖=1, TMin>=0, Diffs present iff
// differentials are enabled for this ray.
type Ray struct {
	From  vec3.Vec3
	Dir   vec3.Vec3 // unit length
	TMin  float64
	TMax  float64
	Time  float64 // in [0,1), for motion blur; unused sample time defaults to 0
	Diffs *RayDifferentials
}

// NewRay builds a ray with the default [TMin, +Inf) extent.
func NewRay(from, dir vec3.Vec3) Ray {
	return Ray{From: from, Dir: dir.Unit(), TMin: 0, TMax: Infinity}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) vec3.Vec3 {
	return r.From.Add(r.Dir.Mul(t))
}

// Infinity is the sentinel "no upper bound" ray extent.
const Infinity = 1e30
