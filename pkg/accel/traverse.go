package accel

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// OpacityFunc classifies a primitive hit as opaque or reports the
// transparency filter it contributes, letting the accelerator stay
// independent of the material package (spec.md presents materials as a
// capability set reached only through named interfaces, §2). The caller
// (integrator/scene layer) supplies it.
type OpacityFunc func(prim geometry.Primitive, hit geometry.IntersectData) (opaque bool, filter color.RGB)

type stackFrame struct {
	t           float64
	point       vec3.Vec3
	node        int32 // -1 means "nowhere" (terminal)
	prevStackID int
}

const noNode = -1

// rawCross computes the [enter,leave] crossing of the ray against the
// tree's root bound, ignoring ray.TMin (spec.md §4.1 traversal pseudocode
// distinguishes an "external" vs "internal" origin using the raw crossing,
// not the t_min-clamped one used for primitive tests).
func (a *Accelerator) rawCross(r geometry.Ray, tMax float64) (crossed bool, enter, leave float64) {
	enter, leave = -geometry.Infinity, tMax
	for _, axis := range [3]vec3.Axis{vec3.AxisX, vec3.AxisY, vec3.AxisZ} {
		origin := r.From.Get(axis)
		dir := r.Dir.Get(axis)
		var invDir float64
		if dir == 0 {
			invDir = math.Inf(1)
		} else {
			invDir = 1 / dir
		}
		t0 := (a.bound.Min.Get(axis) - origin) * invDir
		t1 := (a.bound.Max.Get(axis) - origin) * invDir
		if math.IsNaN(t0) {
			t0 = math.Inf(1)
		}
		if math.IsNaN(t1) {
			t1 = math.Inf(1)
		}
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > enter {
			enter = t0
		}
		if t1 < leave {
			leave = t1
		}
		if enter > leave {
			return false, 0, 0
		}
	}
	return true, enter, leave
}

// Intersect finds the nearest hit along ray r restricted to [t_min, t_max]
// (spec.md §2 "intersect(ray, t_max) → nearest hit").
func (a *Accelerator) Intersect(r geometry.Ray, tMax float64) (geometry.IntersectData, bool) {
	if len(a.prims) == 0 {
		return geometry.IntersectData{}, false
	}
	crossed, enter, leave := a.rawCross(r, tMax)
	if !crossed {
		return geometry.IntersectData{}, false
	}
	tMin := math.Max(r.TMin, DynamicRayBias(enter))
	data := a.walk(r, tMax, tMin, enter, leave, nil)
	return data, data.Hit
}

// IntersectShadow reports whether any opaque primitive blocks the segment
// [t_min, t_max] (spec.md §2 "intersectShadow(ray, t_max) → any hit"). Uses
// the unbiased t_min per spec.md §4.1 "the shadow query uses the unbiased
// t_min".
func (a *Accelerator) IntersectShadow(r geometry.Ray, tMax float64, opacity OpacityFunc) bool {
	if len(a.prims) == 0 {
		return false
	}
	crossed, enter, leave := a.rawCross(r, tMax)
	if !crossed {
		return false
	}
	data := a.walkShadow(r, tMax, r.TMin, enter, leave, opacity)
	return data
}

// IntersectTransparentShadow accumulates a transparency filter through a
// chain of filtering hits up to maxDepth, stopping at the first opaque hit
// (spec.md §2 "intersectTransparentShadow(ray, t_max, maxDepth) →
// accumulated filter"). The returned bool reports whether an opaque
// blocker was found (full occlusion).
func (a *Accelerator) IntersectTransparentShadow(r geometry.Ray, tMax float64, maxDepth int, opacity OpacityFunc) (color.RGB, bool) {
	if len(a.prims) == 0 {
		return color.White, false
	}
	crossed, enter, leave := a.rawCross(r, tMax)
	if !crossed {
		return color.White, false
	}
	tMin := math.Max(r.TMin, DynamicRayBias(enter))
	return a.walkTransparentShadow(r, tMax, tMin, enter, leave, maxDepth, opacity)
}

// walk implements the NEAREST traversal form of spec.md §4.1's pseudocode.
func (a *Accelerator) walk(r geometry.Ray, tMax, tMin, enter, leave float64, _ OpacityFunc) geometry.IntersectData {
	invDir := vec3.New(safeInv(r.Dir.X), safeInv(r.Dir.Y), safeInv(r.Dir.Z))
	var stack [maxStackDepth]stackFrame
	entryID, exitID := 0, 1
	if enter >= 0 {
		stack[entryID] = stackFrame{t: enter, point: r.At(enter)}
	} else {
		stack[entryID] = stackFrame{t: enter, point: r.From}
	}
	stack[exitID] = stackFrame{t: leave, point: r.At(leave), node: noNode}

	var best geometry.IntersectData
	best.THit = tMax
	curr := int32(0)

	for curr != noNode && stack[entryID].t <= tMax {
		for !a.nodes[curr].isLeaf {
			nd := &a.nodes[curr]
			axis := nd.axis
			splitVal := nd.splitPos
			entryP := stack[entryID].point.Get(axis)
			exitP := stack[exitID].point.Get(axis)
			var farChild int32
			if entryP <= splitVal {
				if exitP <= splitVal {
					curr++
					continue
				}
				farChild = nd.right
				curr++
			} else {
				if exitP > splitVal {
					curr = nd.right
					continue
				}
				farChild = curr + 1
				curr = nd.right
			}
			t := (splitVal - r.From.Get(axis)) * invDir.Get(axis)
			prevExit := exitID
			exitID++
			if exitID == entryID {
				exitID++
			}
			next, prev := nextSpatial(axis), prevSpatial(axis)
			pt := r.From.Add(r.Dir.Mul(t))
			pt = pt.With(axis, splitVal)
			stack[exitID] = stackFrame{t: t, node: farChild, prevStackID: prevExit, point: pt.With(next, r.From.Get(next)+t*r.Dir.Get(next)).With(prev, r.From.Get(prev)+t*r.Dir.Get(prev))}
		}

		n := &a.nodes[curr]
		for i := int32(0); i < n.primCount; i++ {
			pid := a.leafPrims[n.primStart+i]
			prim := a.prims[pid]
			hit := prim.Intersect(r, tMin, best.THit)
			if hit.Hit {
				best = hit
			}
		}
		if best.Hit && best.THit <= stack[exitID].t {
			return best
		}
		entryID = exitID
		curr = stack[exitID].node
		exitID = stack[entryID].prevStackID
	}
	return best
}

// walkShadow implements the SHADOW traversal form: early-out true on the
// first opaque hit in (t_min, t_max].
func (a *Accelerator) walkShadow(r geometry.Ray, tMax, tMin, enter, leave float64, opacity OpacityFunc) bool {
	invDir := vec3.New(safeInv(r.Dir.X), safeInv(r.Dir.Y), safeInv(r.Dir.Z))
	var stack [maxStackDepth]stackFrame
	entryID, exitID := 0, 1
	if enter >= 0 {
		stack[entryID] = stackFrame{t: enter, point: r.At(enter)}
	} else {
		stack[entryID] = stackFrame{t: enter, point: r.From}
	}
	stack[exitID] = stackFrame{t: leave, point: r.At(leave), node: noNode}
	curr := int32(0)

	for curr != noNode && stack[entryID].t <= tMax {
		for !a.nodes[curr].isLeaf {
			nd := &a.nodes[curr]
			axis := nd.axis
			splitVal := nd.splitPos
			entryP := stack[entryID].point.Get(axis)
			exitP := stack[exitID].point.Get(axis)
			var farChild int32
			if entryP <= splitVal {
				if exitP <= splitVal {
					curr++
					continue
				}
				farChild = nd.right
				curr++
			} else {
				if exitP > splitVal {
					curr = nd.right
					continue
				}
				farChild = curr + 1
				curr = nd.right
			}
			t := (splitVal - r.From.Get(axis)) * invDir.Get(axis)
			prevExit := exitID
			exitID++
			if exitID == entryID {
				exitID++
			}
			next, prev := nextSpatial(axis), prevSpatial(axis)
			pt := r.From.Add(r.Dir.Mul(t)).With(axis, splitVal)
			stack[exitID] = stackFrame{t: t, node: farChild, prevStackID: prevExit, point: pt.With(next, r.From.Get(next)+t*r.Dir.Get(next)).With(prev, r.From.Get(prev)+t*r.Dir.Get(prev))}
		}

		n := &a.nodes[curr]
		for i := int32(0); i < n.primCount; i++ {
			pid := a.leafPrims[n.primStart+i]
			prim := a.prims[pid]
			hit := prim.Intersect(r, tMin, tMax)
			if hit.Hit {
				if opacity == nil {
					return true
				}
				if opaque, _ := opacity(prim, hit); opaque {
					return true
				}
			}
		}
		entryID = exitID
		curr = stack[exitID].node
		exitID = stack[entryID].prevStackID
	}
	return false
}

// walkTransparentShadow implements the TSHADOW traversal form, accumulating
// a transparency filter through non-opaque hits (spec.md §4.1, §9 Open
// Question 2: a small fixed-capacity dedup set avoids double-filtering a
// shared edge between two primitives).
func (a *Accelerator) walkTransparentShadow(r geometry.Ray, tMax, tMin, enter, leave float64, maxDepth int, opacity OpacityFunc) (color.RGB, bool) {
	invDir := vec3.New(safeInv(r.Dir.X), safeInv(r.Dir.Y), safeInv(r.Dir.Z))
	var stack [maxStackDepth]stackFrame
	entryID, exitID := 0, 1
	if enter >= 0 {
		stack[entryID] = stackFrame{t: enter, point: r.At(enter)}
	} else {
		stack[entryID] = stackFrame{t: enter, point: r.From}
	}
	stack[exitID] = stackFrame{t: leave, point: r.At(leave), node: noNode}
	curr := int32(0)

	filter := color.White
	depth := 0
	var filtered [8]geometry.Primitive
	nFiltered := 0
	alreadyFiltered := func(p geometry.Primitive) bool {
		for i := 0; i < nFiltered; i++ {
			if filtered[i] == p {
				return true
			}
		}
		return false
	}

	for curr != noNode && stack[entryID].t <= tMax {
		for !a.nodes[curr].isLeaf {
			nd := &a.nodes[curr]
			axis := nd.axis
			splitVal := nd.splitPos
			entryP := stack[entryID].point.Get(axis)
			exitP := stack[exitID].point.Get(axis)
			var farChild int32
			if entryP <= splitVal {
				if exitP <= splitVal {
					curr++
					continue
				}
				farChild = nd.right
				curr++
			} else {
				if exitP > splitVal {
					curr = nd.right
					continue
				}
				farChild = curr + 1
				curr = nd.right
			}
			t := (splitVal - r.From.Get(axis)) * invDir.Get(axis)
			prevExit := exitID
			exitID++
			if exitID == entryID {
				exitID++
			}
			next, prev := nextSpatial(axis), prevSpatial(axis)
			pt := r.From.Add(r.Dir.Mul(t)).With(axis, splitVal)
			stack[exitID] = stackFrame{t: t, node: farChild, prevStackID: prevExit, point: pt.With(next, r.From.Get(next)+t*r.Dir.Get(next)).With(prev, r.From.Get(prev)+t*r.Dir.Get(prev))}
		}

		n := &a.nodes[curr]
		for i := int32(0); i < n.primCount; i++ {
			pid := a.leafPrims[n.primStart+i]
			prim := a.prims[pid]
			hit := prim.Intersect(r, tMin, tMax)
			if !hit.Hit || alreadyFiltered(prim) {
				continue
			}
			if opacity == nil {
				return color.Black, true
			}
			opaque, hitFilter := opacity(prim, hit)
			if opaque {
				return color.Black, true
			}
			filter = filter.MulColor(hitFilter)
			if nFiltered < len(filtered) {
				filtered[nFiltered] = prim
				nFiltered++
			}
			depth++
			if depth >= maxDepth {
				return filter, false
			}
		}
		entryID = exitID
		curr = stack[exitID].node
		exitID = stack[entryID].prevStackID
	}
	return filter, false
}

func safeInv(d float64) float64 {
	if d == 0 {
		return math.Inf(1)
	}
	return 1 / d
}

func nextSpatial(a vec3.Axis) vec3.Axis { return (a + 1) % 3 }
func prevSpatial(a vec3.Axis) vec3.Axis { return (a + 2) % 3 }
