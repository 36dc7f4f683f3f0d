package accel

import (
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func randomSpheres(n int, seed int64) []geometry.Primitive {
	rnd := rand.New(rand.NewSource(seed))
	prims := make([]geometry.Primitive, n)
	for i := 0; i < n; i++ {
		c := vec3.New(rnd.Float64()*20-10, rnd.Float64()*20-10, rnd.Float64()*20-10)
		prims[i] = &geometry.Sphere{Center: c, Radius: 0.3 + rnd.Float64()*0.7, MatID: 0, ObjID: 0}
	}
	return prims
}

func TestBuildEmptyTreeReturnsMiss(t *testing.T) {
	a := Build(nil, Params{})
	r := geometry.NewRay(vec3.New(0, 0, 0), vec3.New(0, 0, -1))
	if _, hit := a.Intersect(r, geometry.Infinity); hit {
		t.Errorf("empty accelerator should always miss")
	}
	if a.IntersectShadow(r, geometry.Infinity, nil) {
		t.Errorf("empty accelerator should never shadow")
	}
}

func TestBoundContainmentInvariant(t *testing.T) {
	prims := randomSpheres(200, 1)
	a := Build(prims, Params{})
	for i, p := range prims {
		pb := p.Bound()
		// the root bound (after 0.1% inflation) must enclose every
		// primitive's own bound (spec.md §8 invariant 1).
		if !encloses(a.Bound(), pb) {
			t.Fatalf("primitive %d bound %+v not enclosed by root bound %+v", i, pb, a.Bound())
		}
	}
}

func encloses(outer, inner geometry.Bound) bool {
	const eps = 1e-6
	return inner.Min.X >= outer.Min.X-eps && inner.Min.Y >= outer.Min.Y-eps && inner.Min.Z >= outer.Min.Z-eps &&
		inner.Max.X <= outer.Max.X+eps && inner.Max.Y <= outer.Max.Y+eps && inner.Max.Z <= outer.Max.Z+eps
}

func TestTraversalFindsNearestHit(t *testing.T) {
	prims := []geometry.Primitive{
		&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1},
		&geometry.Sphere{Center: vec3.New(0, 0, 5), Radius: 1},
	}
	a := Build(prims, Params{})
	r := geometry.NewRay(vec3.New(0, 0, 10), vec3.New(0, 0, -1))
	hit, ok := a.Intersect(r, geometry.Infinity)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.THit > 5 {
		t.Errorf("expected the nearer sphere (t~4) to win, got t=%v", hit.THit)
	}
}

func TestShadowMonotonicity(t *testing.T) {
	prims := []geometry.Primitive{&geometry.Sphere{Center: vec3.New(0, 0, 0), Radius: 1}}
	a := Build(prims, Params{})
	opaque := func(geometry.Primitive, geometry.IntersectData) (bool, color.RGB) { return true, color.Black }

	misses := []geometry.Ray{
		geometry.NewRay(vec3.New(10, 10, 10), vec3.New(0, 0, -1)),
		geometry.NewRay(vec3.New(-5, -5, -5), vec3.New(1, 0, 0)),
	}
	for _, r := range misses {
		_, hit := a.Intersect(r, geometry.Infinity)
		if hit {
			continue // only testing the miss => no-shadow direction below
		}
		if a.IntersectShadow(r, geometry.Infinity, opaque) {
			t.Errorf("shadow monotonicity violated: Intersect missed but IntersectShadow hit for ray %+v", r)
		}
	}
}

func TestAcceleratorDeterministicUnderPermutation(t *testing.T) {
	prims := randomSpheres(100, 42)
	a1 := Build(prims, Params{})

	permuted := make([]geometry.Primitive, len(prims))
	perm := rand.New(rand.NewSource(7)).Perm(len(prims))
	for i, p := range perm {
		permuted[p] = prims[i]
	}
	a2 := Build(permuted, Params{})

	rays := []geometry.Ray{
		geometry.NewRay(vec3.New(0, 0, 20), vec3.New(0, 0, -1)),
		geometry.NewRay(vec3.New(3, -2, 15), vec3.New(-0.1, 0.05, -1).Unit()),
		geometry.NewRay(vec3.New(-8, 4, 12), vec3.New(0.3, -0.2, -1).Unit()),
	}
	for _, r := range rays {
		h1, ok1 := a1.Intersect(r, geometry.Infinity)
		h2, ok2 := a2.Intersect(r, geometry.Infinity)
		if ok1 != ok2 {
			t.Fatalf("hit/miss mismatch under permutation: %v vs %v", ok1, ok2)
		}
		if ok1 && absf(h1.THit-h2.THit) > 1e-6 {
			t.Errorf("t_hit mismatch under permutation: %v vs %v", h1.THit, h2.THit)
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestTransparentShadowAccumulatesFilters(t *testing.T) {
	// two translucent panes between the origin and the target
	up := vec3.New(0, 1, 0)
	prims := []geometry.Primitive{
		&geometry.Triangle{V0: vec3.New(-5, -5, 2), V1: vec3.New(5, -5, 2), V2: vec3.New(0, 5, 2), N0: up, N1: up, N2: up},
		&geometry.Triangle{V0: vec3.New(-5, -5, 4), V1: vec3.New(5, -5, 4), V2: vec3.New(0, 5, 4), N0: up, N1: up, N2: up},
	}
	a := Build(prims, Params{})

	halve := func(geometry.Primitive, geometry.IntersectData) (bool, color.RGB) {
		return false, color.New(0.5, 0.5, 0.5)
	}
	r := geometry.NewRay(vec3.New(0, 0, 0), vec3.New(0, 0, 1))
	filter, blocked := a.IntersectTransparentShadow(r, 10, 8, halve)
	if blocked {
		t.Fatal("no opaque primitive in the scene, nothing should fully block")
	}
	if absf(filter.R-0.25) > 1e-9 {
		t.Errorf("two 0.5 filters should compound to 0.25, got %v", filter.R)
	}

	opaque := func(geometry.Primitive, geometry.IntersectData) (bool, color.RGB) {
		return true, color.Black
	}
	if _, blocked := a.IntersectTransparentShadow(r, 10, 8, opaque); !blocked {
		t.Errorf("an opaque hit must report full occlusion")
	}
}

func TestTransparentShadowDepthLimitStopsFiltering(t *testing.T) {
	up := vec3.New(0, 1, 0)
	var prims []geometry.Primitive
	for i := 0; i < 6; i++ {
		z := 1 + float64(i)
		prims = append(prims, &geometry.Triangle{
			V0: vec3.New(-5, -5, z), V1: vec3.New(5, -5, z), V2: vec3.New(0, 5, z),
			N0: up, N1: up, N2: up,
		})
	}
	a := Build(prims, Params{})
	halve := func(geometry.Primitive, geometry.IntersectData) (bool, color.RGB) {
		return false, color.New(0.5, 0.5, 0.5)
	}
	r := geometry.NewRay(vec3.New(0, 0, 0), vec3.New(0, 0, 1))
	filter, blocked := a.IntersectTransparentShadow(r, 10, 2, halve)
	if blocked {
		t.Fatal("nothing opaque in the scene")
	}
	if absf(filter.R-0.25) > 1e-9 {
		t.Errorf("maxDepth=2 should stop after two filters (0.25), got %v", filter.R)
	}
}

func TestMultiThreadedBuildMatchesSingleThreaded(t *testing.T) {
	prims := randomSpheres(500, 3)
	single := Build(prims, Params{})
	threaded := Build(prims, Params{SpawnThreshold: 32, MaxBuildGoroutines: 4})

	// the subtree-merge build produces a byte-identical node layout no
	// matter how many goroutines participated.
	if len(single.nodes) != len(threaded.nodes) {
		t.Fatalf("node count differs: %d vs %d", len(single.nodes), len(threaded.nodes))
	}
	for i := range single.nodes {
		if single.nodes[i] != threaded.nodes[i] {
			t.Fatalf("node %d differs between single- and multi-threaded builds:\n%s vs %s",
				i, spew.Sdump(single.nodes[i]), spew.Sdump(threaded.nodes[i]))
		}
	}

	r := geometry.NewRay(vec3.New(0, 0, 20), vec3.New(0, 0, -1))
	h1, ok1 := single.Intersect(r, geometry.Infinity)
	h2, ok2 := threaded.Intersect(r, geometry.Infinity)
	if ok1 != ok2 {
		t.Fatalf("threaded build hit/miss mismatch: %v vs %v", ok1, ok2)
	}
	if ok1 && absf(h1.THit-h2.THit) > 1e-6 {
		t.Errorf("threaded build t_hit mismatch: %v vs %v", h1.THit, h2.THit)
	}
}
