package accel

import (
	"sync"

	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

type builder struct {
	prims           []geometry.Primitive
	maxDepth        int
	maxLeafSize     int
	costRatio       float64
	emptyBonus      float64
	clipThreshold   int
	clippingEnabled bool
	spawnThreshold  int
	sem             chan struct{} // bounds the number of concurrently building goroutines
}

// subtree is a fully built kd-subtree with node indices relative to its own
// root (index 0). Parents splice subtrees into their node array by
// relocating those indices, which is what makes the multi-threaded build
// produce a tree identical to the single-threaded one (spec.md §4.1
// "Multi-threaded build... merge the right subtree's nodes by relocating
// indices"): each recursion owns its slices outright, so goroutines never
// share mutable state, and the merge order is fixed by the recursion shape
// rather than by scheduling.
type subtree struct {
	nodes     []node
	leafPrims []PrimitiveID
	stats     Stats
}

// splitCandidate is one candidate SAH split position.
type splitCandidate struct {
	axis     vec3.Axis
	pos      float64
	cost     float64
	nLeft    int
	nRight   int
	hasSplit bool
}

// tryAcquire attempts to claim a build goroutine slot without blocking.
func (b *builder) tryAcquire() bool {
	if b.sem == nil {
		return false
	}
	select {
	case b.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (b *builder) release() {
	if b.sem != nil {
		<-b.sem
	}
}

// build implements spec.md §4.1 step 3, the recursive SAH build. bounds is
// parallel to indices (bounds[i] is the current, possibly already-clipped,
// bound of primitive indices[i] along this recursion path) rather than a
// single array shared across the whole tree: a straddling primitive takes a
// different tightened bound in each child subtree, so the per-subtree bound
// must be threaded down as a local value, never written back to a
// structure another subtree also reads.
func (b *builder) build(indices []int32, bounds []geometry.Bound, bound geometry.Bound, depth int, badRefines int) subtree {
	n := len(indices)

	if n <= b.maxLeafSize || depth >= b.maxDepth || badRefines >= 2 {
		return b.makeLeaf(indices, depth)
	}

	longest := bound.LongestAxis()
	axesToTry := [3]vec3.Axis{longest, nextAxis(longest), nextAxis(nextAxis(longest))}

	var best splitCandidate
	best.cost = b.leafCost(n)
	foundGood := false
	badSplit := false

	bestOverall := splitCandidate{cost: 1e300}
	for _, axis := range axesToTry {
		c := b.bestSplitForAxis(bounds, bound, axis, n)
		if !c.hasSplit {
			continue
		}
		if c.cost < bestOverall.cost {
			bestOverall = c
		}
		if c.cost < best.cost {
			best = c
			foundGood = true
			break // "accept the first that yields a cost-reducing split"
		}
	}

	if !foundGood {
		if bestOverall.hasSplit && badRefines < 1 {
			// tolerate one "bad" refinement along a recursion path, using the
			// globally best candidate; a second one leafs (spec.md §4.1 step c).
			best = bestOverall
			badRefines++
			badSplit = true
		} else {
			return b.makeLeaf(indices, depth)
		}
	}

	// Partition indices (and their parallel bounds) into left/right/both
	// based on the chosen split. A straddling primitive is appended to both
	// sides, each getting its own copy of the pre-split bound.
	leftBound, rightBound := bound.Split(best.axis, best.pos)
	var leftIdx, rightIdx []int32
	var leftBounds, rightBounds []geometry.Bound
	for i, idx := range indices {
		pb := bounds[i]
		lo, hi := pb.Min.Get(best.axis), pb.Max.Get(best.axis)
		if hi <= best.pos {
			leftIdx = append(leftIdx, idx)
			leftBounds = append(leftBounds, pb)
		} else if lo >= best.pos {
			rightIdx = append(rightIdx, idx)
			rightBounds = append(rightBounds, pb)
		} else {
			leftIdx = append(leftIdx, idx)
			leftBounds = append(leftBounds, pb)
			rightIdx = append(rightIdx, idx)
			rightBounds = append(rightBounds, pb)
		}
	}

	var clipStats Stats
	if b.clippingEnabled && n <= b.clipThreshold {
		leftBounds = b.clip(leftIdx, leftBounds, leftBound, &clipStats)
		rightBounds = b.clip(rightIdx, rightBounds, rightBound, &clipStats)
	}

	// Multi-threaded build: fork the right subtree onto a new goroutine when
	// it is large enough and a build slot is free, continuing the left
	// subtree inline (spec.md §4.1 "Multi-threaded build"). Both subtrees
	// are self-contained, so the only synchronisation needed is the join.
	var left, right subtree
	if len(rightIdx) >= b.spawnThreshold && b.tryAcquire() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.release()
			right = b.build(rightIdx, rightBounds, rightBound, depth+1, badRefines)
		}()
		left = b.build(leftIdx, leftBounds, leftBound, depth+1, badRefines)
		wg.Wait()
	} else {
		left = b.build(leftIdx, leftBounds, leftBound, depth+1, badRefines)
		right = b.build(rightIdx, rightBounds, rightBound, depth+1, badRefines)
	}

	return b.merge(best, left, right, badSplit, clipStats)
}

// merge splices the left and right subtrees under a fresh interior node:
// the left subtree lands at offset 1 (so the left child is always the next
// node, the layout traversal relies on), the right at offset 1+len(left).
func (b *builder) merge(split splitCandidate, left, right subtree, badSplit bool, clipStats Stats) subtree {
	rightOffset := int32(1 + len(left.nodes))
	out := subtree{
		nodes:     make([]node, 0, 1+len(left.nodes)+len(right.nodes)),
		leafPrims: make([]PrimitiveID, 0, len(left.leafPrims)+len(right.leafPrims)),
	}
	out.nodes = append(out.nodes, node{isLeaf: false, axis: split.axis, splitPos: split.pos, right: rightOffset})
	out.nodes = append(out.nodes, left.nodes...)
	for i := range out.nodes[1:] {
		relocate(&out.nodes[1+i], 1, 0)
	}
	base := len(out.nodes)
	out.nodes = append(out.nodes, right.nodes...)
	leafBase := int32(len(left.leafPrims))
	for i := base; i < len(out.nodes); i++ {
		relocate(&out.nodes[i], rightOffset, leafBase)
	}
	out.leafPrims = append(out.leafPrims, left.leafPrims...)
	out.leafPrims = append(out.leafPrims, right.leafPrims...)

	out.stats.Add(left.stats)
	out.stats.Add(right.stats)
	out.stats.Add(clipStats)
	out.stats.InteriorNodes++
	if badSplit {
		out.stats.BadSplits++
	}
	return out
}

// relocate shifts a node's internal references from subtree-local to
// merged-array coordinates.
func relocate(n *node, nodeOffset, leafPrimOffset int32) {
	if n.isLeaf {
		n.primStart += leafPrimOffset
	} else {
		n.right += nodeOffset
	}
}

func nextAxis(a vec3.Axis) vec3.Axis { return (a + 1) % 3 }

// bestSplitForAxis sweeps the bound edges along axis and returns the
// minimal-cost candidate split, per spec.md §4.1 steps c/d. bounds is
// parallel to the current index list (see build's doc comment).
func (b *builder) bestSplitForAxis(bounds []geometry.Bound, bound geometry.Bound, axis vec3.Axis, n int) splitCandidate {
	lo, hi := bound.Min.Get(axis), bound.Max.Get(axis)
	if hi <= lo {
		return splitCandidate{}
	}
	edges := buildEdges(bounds, axis)

	invTotalArea := 1.0
	if sa := bound.SurfaceArea(); sa > 0 {
		invTotalArea = 1 / sa
	}
	d := bound.Extent()
	var otherArea1, otherArea2 float64
	switch axis {
	case vec3.AxisX:
		otherArea1, otherArea2 = d.Y, d.Z
	case vec3.AxisY:
		otherArea1, otherArea2 = d.X, d.Z
	default:
		otherArea1, otherArea2 = d.X, d.Y
	}
	perimeter := otherArea1 + otherArea2 // half-perimeter of the cross-section, for the sweep plane area

	nLeft, nRight := 0, n
	best := splitCandidate{cost: 1e300}
	for _, e := range edges {
		if e.end {
			nRight--
		}
		if e.pos > lo && e.pos < hi {
			areaLeft := 2 * (otherArea1*otherArea2 + (e.pos-lo)*perimeter)
			areaRight := 2 * (otherArea1*otherArea2 + (hi-e.pos)*perimeter)
			empty := nLeft == 0 || nRight == 0
			bonus := 1.0
			if empty {
				bonus = 1 - b.emptyBonus
			}
			cost := costTraversal + b.costRatio*bonus*(areaLeft*float64(nLeft)+areaRight*float64(nRight))*invTotalArea
			if cost < best.cost {
				best = splitCandidate{axis: axis, pos: e.pos, cost: cost, nLeft: nLeft, nRight: nRight, hasSplit: true}
			}
		}
		if e.start {
			nLeft++
		}
	}
	return best
}

func (b *builder) leafCost(n int) float64 {
	return b.costRatio * float64(n)
}

func (b *builder) makeLeaf(indices []int32, depth int) subtree {
	st := subtree{
		nodes:     []node{{isLeaf: true, primCount: int32(len(indices))}},
		leafPrims: make([]PrimitiveID, 0, len(indices)),
	}
	for _, i := range indices {
		st.leafPrims = append(st.leafPrims, PrimitiveID(i))
	}
	st.stats.LeafNodes++
	if len(indices) == 0 {
		st.stats.EmptyLeaves++
	}
	st.stats.LeafPrimitives += len(indices)
	if depth >= b.maxDepth {
		st.stats.DepthLimitReached++
	}
	return st
}

// clip tightens each primitive's bound to box when the primitive supports
// exact clipping (spec.md §4.1 step e), returning a new slice parallel to
// indices — it never mutates bounds or any shared state, so the sibling
// side's clip (computed from the same pre-split bounds) is unaffected.
// Primitives without a Clippable implementation keep their existing
// (clamped) bound. Clips producing a degenerate or empty result count as
// bad/null clips but the primitive is still kept on this side — only its
// recorded bound shrinks.
func (b *builder) clip(indices []int32, bounds []geometry.Bound, box geometry.Bound, stats *Stats) []geometry.Bound {
	out := make([]geometry.Bound, len(indices))
	for i, idx := range indices {
		out[i] = bounds[i]
		clippable, ok := b.prims[idx].(geometry.Clippable)
		if !ok {
			continue
		}
		clipped, nonEmpty := clippable.ClipToBound(box)
		stats.Clips++
		if !nonEmpty {
			stats.NullClips++
			continue
		}
		if degenerate(clipped) {
			stats.BadClips++
		}
		// only tighten; never grow past the pre-split bound.
		out[i] = tightenBound(bounds[i], clipped)
	}
	return out
}

// tightenBound intersects cur with clipped, a pure function over its
// arguments so callers never need to guard it with a lock.
func tightenBound(cur, clipped geometry.Bound) geometry.Bound {
	return geometry.Bound{
		Min: vec3.New(maxf(cur.Min.X, clipped.Min.X), maxf(cur.Min.Y, clipped.Min.Y), maxf(cur.Min.Z, clipped.Min.Z)),
		Max: vec3.New(minf(cur.Max.X, clipped.Max.X), minf(cur.Max.Y, clipped.Max.Y), minf(cur.Max.Z, clipped.Max.Z)),
	}
}

func degenerate(b geometry.Bound) bool {
	const eps = 1e-7
	d := b.Extent()
	return d.X < eps || d.Y < eps || d.Z < eps
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
