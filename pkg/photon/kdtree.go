package photon

import (
	"container/heap"
	"math/bits"
	"sort"

	"github.com/yafaray/yafacore/pkg/mathutil"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Map is a balanced kd-tree over photon positions (spec.md §4.3 "Tree
// build... After emission, build a balanced left-balanced kd-tree over
// photon positions"). Nodes are laid out heap-style (node i's children are
// at 2i+1, 2i+2) so both build and gather are simple array recursion with
// no pointers, matching the accelerator's own append-only-array
// philosophy.
type Map struct {
	nodes  []node
	nPaths int // photon paths shot, for normalising gathered flux
}

type node struct {
	photon Photon
	axis   int8
}

// Build balances ps into a kd-tree; nPaths is the number of emitted photon
// paths (not necessarily len(ps)) used later to normalise gathered flux.
func Build(ps []Photon, nPaths int) *Map {
	m := &Map{nodes: make([]node, len(ps)), nPaths: nPaths}
	work := append([]Photon(nil), ps...)
	balance(work, 0, m.nodes)
	return m
}

// leftSubtreeSize returns the number of nodes that belong in the left
// child's subtree when n nodes are packed into a left-balanced heap array,
// the split that keeps every slot in [0, n) occupied.
func leftSubtreeSize(n int) int {
	if n <= 1 {
		return 0
	}
	h := bits.Len(uint(n)) - 1    // depth of the bottom level
	full := (1 << h) - 1          // nodes in the levels above the bottom one
	bottom := mathutil.Min(n-full, 1<<(h-1)) // bottom-level nodes owned by the left side
	return full/2 + bottom
}

func balance(ps []Photon, idx int, out []node) {
	n := len(ps)
	if n == 0 {
		return
	}
	axis := longestAxis(ps)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Pos.Get(axis) < ps[j].Pos.Get(axis) })
	median := leftSubtreeSize(n)
	out[idx] = node{photon: ps[median], axis: int8(axis)}
	balance(ps[:median], 2*idx+1, out)
	balance(ps[median+1:], 2*idx+2, out)
}

func longestAxis(ps []Photon) vec3.Axis {
	min, max := ps[0].Pos, ps[0].Pos
	for _, p := range ps[1:] {
		min = vec3.New(mathutil.Min(min.X, p.Pos.X), mathutil.Min(min.Y, p.Pos.Y), mathutil.Min(min.Z, p.Pos.Z))
		max = vec3.New(mathutil.Max(max.X, p.Pos.X), mathutil.Max(max.Y, p.Pos.Y), mathutil.Max(max.Z, p.Pos.Z))
	}
	d := max.Sub(min)
	axis := vec3.AxisX
	best := d.X
	if d.Y > best {
		axis, best = vec3.AxisY, d.Y
	}
	if d.Z > best {
		axis = vec3.AxisZ
	}
	return axis
}

// NumPhotons returns the number of stored photons.
func (m *Map) NumPhotons() int { return len(m.nodes) }

// NPaths returns the number of emitted photon paths used for normalisation.
func (m *Map) NPaths() int { return m.nPaths }

// Found is one result of Gather: the photon and its squared distance from
// the query point.
type Found struct {
	Photon Photon
	Dist2  float64
}

// maxHeap keeps the k nearest-so-far candidates, ordered so the top (index
// 0) is always the worst (furthest) of the retained set -- "max-heap
// truncation" per spec.md §4.3 "gather(p, k, r²) ... using max-heap
// truncation".
type maxHeap []Found

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].Dist2 > h[j].Dist2 }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(Found)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Gather returns up to k photons within squared radius r2 of p, and the
// (possibly shrunk) final squared search radius (spec.md §4.3 "Gather").
func (m *Map) Gather(p vec3.Vec3, k int, r2 float64) ([]Found, float64) {
	if len(m.nodes) == 0 || k <= 0 {
		return nil, r2
	}
	h := &maxHeap{}
	heap.Init(h)
	m.gather(0, p, k, r2, h)
	final := r2
	if h.Len() == k {
		final = (*h)[0].Dist2
	}
	out := make([]Found, h.Len())
	copy(out, *h)
	sort.Slice(out, func(i, j int) bool { return out[i].Dist2 < out[j].Dist2 })
	return out, final
}

func (m *Map) gather(idx int, p vec3.Vec3, k int, r2 float64, h *maxHeap) {
	if idx >= len(m.nodes) {
		return
	}
	n := &m.nodes[idx]
	d := n.photon.Pos.Sub(p)
	distPlane := d.Get(vec3.Axis(n.axis))

	// distPlane > 0 means the splitting plane lies above p along the axis,
	// so p falls in the left (min) child's half-space.
	li, ri := 2*idx+1, 2*idx+2
	near, far := li, ri
	if distPlane <= 0 {
		near, far = ri, li
	}
	m.gather(near, p, k, r2, h)
	// prune the far side against the current worst-in-heap, recomputed
	// after the near side may have filled the heap.
	searchR2 := r2
	if h.Len() == k {
		searchR2 = (*h)[0].Dist2
	}
	if distPlane*distPlane < searchR2 {
		m.gather(far, p, k, r2, h)
	}

	dist2 := d.LengthSquared()
	if dist2 > r2 {
		return
	}
	if h.Len() < k {
		heap.Push(h, Found{Photon: n.photon, Dist2: dist2})
	} else if dist2 < (*h)[0].Dist2 {
		heap.Pop(h)
		heap.Push(h, Found{Photon: n.photon, Dist2: dist2})
	}
}
