package geometry

import "github.com/yafaray/yafacore/pkg/vec3"

// MaterialID indexes into the scene's material arena (spec.md §9 "Raw
// pointer back-references... become indices into an arena").
type MaterialID int32

// ObjectID indexes into the scene's object arena.
type ObjectID int32

// IntersectData is the result of a single primitive-ray intersection query
// (spec.md §3 "IntersectData"). THit is only meaningful when Hit is true,
// and by construction is always <= the t_max the query was run with.
type IntersectData struct {
	Hit       bool
	THit      float64
	U, V      float64
	Primitive Primitive
}

// SurfacePoint carries everything a material/light needs to shade a hit:
// position, geometric/shading normal, uv, and partial derivatives for
// anisotropic shading and ray differential propagation.
type SurfacePoint struct {
	Position   vec3.Vec3
	GeoNormal  vec3.Vec3 // geometric (true) normal, always faces the incoming ray's origin side is NOT pre-applied
	Normal     vec3.Vec3 // shading normal (equals GeoNormal unless a material perturbs it)
	U, V       float64
	DpDu, DpDv vec3.Vec3
	Material   MaterialID
	Object     ObjectID
	Primitive  Primitive
}

// Primitive is the capability set of spec.md §2.1: every concrete
// geometric shape (triangle face, analytic sphere) and the Instance
// wrapper implement it uniformly, so the accelerator and integrators never
// need to know which concrete kind they are holding.
type Primitive interface {
	// Bound returns the world-space axis-aligned bound of the primitive.
	Bound() Bound
	// Intersect tests ray r restricted to (tMin, tMax] and returns the hit,
	// if any, as a parametric distance and the primitive's own (u,v).
	Intersect(r Ray, tMin, tMax float64) IntersectData
	// SurfaceData expands an IntersectData (from this same primitive) at
	// the given ray into a full SurfacePoint.
	SurfaceData(r Ray, hit IntersectData) SurfacePoint
	// Sample draws a point on the primitive's surface, used by area lights.
	Sample(u, v float64) (p, n vec3.Vec3)
	// Area returns the world-space surface area of the primitive.
	Area() float64
	// FaceNormal returns the unperturbed geometric normal (for primitives
	// where this doesn't depend on the hit location, e.g. triangles).
	FaceNormal() vec3.Vec3
	// Material returns the primitive's bound material.
	Material() MaterialID
	// Object returns the owning object's id.
	Object() ObjectID
}

// Clippable is implemented by primitives that support exact overlap
// clipping against an axis-aligned box (spec.md §4.1 step e, "primitive
// clipping"). Not all primitives need to implement it; the accelerator
// falls back to the primitive's full Bound() when it doesn't.
type Clippable interface {
	// ClipToBound returns the tightest bound of the primitive's
	// intersection with box, and whether that intersection is non-empty.
	ClipToBound(box Bound) (Bound, bool)
}
