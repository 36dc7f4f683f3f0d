// Package mathutil provides tiny generic numeric helpers shared by the
// accelerator's build-parameter clamping and the photon map's balancing
// arithmetic, following the pack's existing reliance on golang.org/x/exp
// for generics support (gioui.org, esimov/caire and noisetorch all depend
// on golang.org/x/exp) rather than hand-duplicating min/max/clamp per
// call site and per numeric type.
package mathutil

import "golang.org/x/exp/constraints"

// Clamp restricts v to the closed interval [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
