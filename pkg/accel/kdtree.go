// Package accel implements the spatial kd-tree accelerator of spec.md §4.1:
// SAH-optimised construction with optional primitive clipping and a
// multi-threaded build, plus the three explicit-stack traversal forms
// (nearest, shadow, transparent-shadow) grounded on
// original_source/include/accelerator/accelerator_kdtree_common.h.
package accel

import (
	"math"
	"runtime"
	"sort"

	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/mathutil"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Params configures a single kd-tree build (spec.md §4.1 "Given an array
// P[0..n) ... and parameters").
type Params struct {
	MaxDepth           int     // <=0 selects the default formula
	MaxLeafSize        int     // <=0 selects the default formula
	CostRatio          float64 // C_I; 0 selects the default (0.8, from the original implementation's ci_)
	EmptyBonus         float64 // beta; 0 selects the default (0.33)
	ClippingThresh     int     // K; 0 selects the default 32
	DisableClipping    bool
	SpawnThreshold     int // |indices| at/above which recursion may fork a goroutine; 0 disables threading
	MaxBuildGoroutines int // 0 = runtime.GOMAXPROCS(0)
}

const (
	defaultCostRatio     = 0.8
	defaultEmptyBonus    = 0.33
	defaultClipThreshold = 32
	costTraversal        = 1.0
	maxStackDepth        = 64
)

// node is the packed kd-tree node. Unlike the original C++, which bit-packs
// interior/leaf into 8 bytes via tagging, this keeps an explicit isLeaf
// flag: Go has no portable bitfield packing and the node count is never the
// bottleneck for this renderer (spec.md §9 Open Question 1 leaves the
// representation to the implementer).
type node struct {
	isLeaf    bool
	axis      vec3.Axis
	splitPos  float64
	right     int32 // interior: index of right child node
	primStart int32 // leaf: start offset into leafPrims
	primCount int32 // leaf: number of primitives
}

// PrimitiveID indexes into the accelerator's primitive list.
type PrimitiveID int32

// Accelerator is a built, read-only kd-tree over a flat primitive list
// (spec.md §2 "Accelerator").
type Accelerator struct {
	prims     []geometry.Primitive
	nodes     []node
	leafPrims []PrimitiveID
	bound     geometry.Bound
	maxDepth  int
	leafSize  int
	stats     Stats
}

// Build constructs a kd-tree over prims (spec.md §4.1 "Build algorithm").
func Build(prims []geometry.Primitive, params Params) *Accelerator {
	a := &Accelerator{prims: prims}
	n := len(prims)

	root := geometry.NewEmptyBound()
	for _, p := range prims {
		root = root.Union(p.Bound())
	}
	if n > 0 {
		root = root.Inflate(0.001)
	}
	a.bound = root

	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = mathutil.Clamp(int(math.Floor(7+1.66*log2(float64(mathutil.Max(n, 1))))), 1, 64)
	}
	leafSize := params.MaxLeafSize
	if leafSize <= 0 {
		leafSize = mathutil.Max(1, int(log2(float64(mathutil.Max(n, 1))))-16)
	}
	costRatio := params.CostRatio
	if costRatio <= 0 {
		costRatio = defaultCostRatio
	}
	if log2n := log2(float64(mathutil.Max(n, 1))); log2n > 16 {
		costRatio += 0.25 * (log2n - 16)
	}
	emptyBonus := params.EmptyBonus
	if emptyBonus <= 0 {
		emptyBonus = defaultEmptyBonus
	}
	clipThresh := params.ClippingThresh
	if clipThresh <= 0 {
		clipThresh = defaultClipThreshold
	}

	a.maxDepth = maxDepth
	a.leafSize = leafSize

	b := &builder{
		prims:           prims,
		maxDepth:        maxDepth,
		maxLeafSize:     leafSize,
		costRatio:       costRatio,
		emptyBonus:      emptyBonus,
		clipThreshold:   clipThresh,
		clippingEnabled: !params.DisableClipping,
		spawnThreshold:  params.SpawnThreshold,
	}
	if params.SpawnThreshold > 0 {
		goroutines := params.MaxBuildGoroutines
		if goroutines <= 0 {
			goroutines = runtime.GOMAXPROCS(0)
		}
		b.sem = make(chan struct{}, goroutines)
	}

	indices := make([]int32, n)
	bounds := make([]geometry.Bound, n)
	for i, p := range prims {
		indices[i] = int32(i)
		bounds[i] = p.Bound()
	}

	if n == 0 {
		a.nodes = []node{{isLeaf: true}}
		return a
	}

	st := b.build(indices, bounds, root, 0, 0)
	a.nodes = st.nodes
	a.leafPrims = st.leafPrims
	a.stats = st.stats
	return a
}

func log2(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Log2(x)
}

// Bound returns the tree's root bound.
func (a *Accelerator) Bound() geometry.Bound { return a.bound }

// Stats returns the accumulated build statistics.
func (a *Accelerator) Stats() Stats { return a.stats }

// NumPrimitives returns the size of the primitive list the tree was built over.
func (a *Accelerator) NumPrimitives() int { return len(a.prims) }

// DynamicRayBias computes max(epsAbs, epsRel*|t_enter|) from the root-bound
// crossing distance, per spec.md §4.1 "Dynamic ray bias".
func DynamicRayBias(tEnter float64) float64 {
	const epsAbs = 1e-5
	const epsRel = 1e-5
	rel := epsRel * math.Abs(tEnter)
	if rel > epsAbs {
		return rel
	}
	return epsAbs
}

// sortedEdge is one endpoint of a primitive's bound along the split axis,
// grounded on original_source's BoundEdge (Left/Right/Both tags, tie-break
// Right before Left at equal position).
type sortedEdge struct {
	pos        float64
	start, end bool
}

// buildEdges takes bounds parallel to the current index list (see
// builder.build's doc comment) rather than a global per-primitive array,
// so a straddling primitive's left- and right-subtree bounds never alias.
func buildEdges(bounds []geometry.Bound, axis vec3.Axis) []sortedEdge {
	edges := make([]sortedEdge, 0, 2*len(bounds))
	for _, b := range bounds {
		lo, hi := b.Min.Get(axis), b.Max.Get(axis)
		if lo == hi {
			edges = append(edges, sortedEdge{pos: lo, start: true, end: true})
		} else {
			edges = append(edges, sortedEdge{pos: lo, start: true})
			edges = append(edges, sortedEdge{pos: hi, end: true})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].pos != edges[j].pos {
			return edges[i].pos < edges[j].pos
		}
		return edgeRank(edges[i]) > edgeRank(edges[j])
	})
	return edges
}

// edgeRank orders Right(2) before Both(1) before Left(0) at equal position.
func edgeRank(e sortedEdge) int {
	switch {
	case e.start && e.end:
		return 1
	case e.end:
		return 2
	default:
		return 0
	}
}
