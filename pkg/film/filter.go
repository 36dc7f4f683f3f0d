// Package film owns the image-plane buffers: tile partitioning, per-sample
// reconstruction filtering, and final gamma-corrected output (spec.md §4.5
// "Film and tile driver"), generalising the teacher's
// pkg/renderer.PixelStats/Tile/NewTileGrid into a standalone, integrator-
// agnostic package with a pluggable reconstruction filter.
package film

import "math"

// Filter is a separable pixel-reconstruction filter evaluated over the
// footprint returned by Radius (spec.md §4.5 "applied over a 2-pixel
// footprint").
type Filter interface {
	// Weight returns the filter's contribution at offset (dx, dy) from the
	// pixel centre, in filter-space units (not clamped to Radius).
	Weight(dx, dy float64) float64
	// Radius returns the filter's half-width; samples further than Radius
	// from a pixel centre don't contribute to it.
	Radius() float64
}

// BoxFilter is the degenerate filter: every sample in its footprint counts
// equally.
type BoxFilter struct{ R float64 }

func NewBoxFilter() BoxFilter { return BoxFilter{R: 0.5} }

func (f BoxFilter) Weight(dx, dy float64) float64 { return 1 }
func (f BoxFilter) Radius() float64               { return f.R }

// GaussFilter is a Gaussian reconstruction filter with the teacher-grade
// default sigma of spec.md §4.5 ("gauss sigma~=0.5").
type GaussFilter struct {
	Sigma float64
	R     float64
}

func NewGaussFilter(sigma float64) GaussFilter {
	if sigma <= 0 {
		sigma = 0.5
	}
	return GaussFilter{Sigma: sigma, R: 2}
}

func (f GaussFilter) Weight(dx, dy float64) float64 {
	return gauss1D(dx, f.Sigma) * gauss1D(dy, f.Sigma)
}
func (f GaussFilter) Radius() float64 { return f.R }

func gauss1D(d, sigma float64) float64 {
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// MitchellFilter is the Mitchell-Netravali cubic filter (spec.md §4.5
// "Mitchell B=1/3 C=1/3").
type MitchellFilter struct {
	B, C float64
	R    float64
}

func NewMitchellFilter(b, c float64) MitchellFilter {
	return MitchellFilter{B: b, C: c, R: 2}
}

func (f MitchellFilter) Weight(dx, dy float64) float64 {
	return f.mitchell1D(dx/f.R) * f.mitchell1D(dy/f.R)
}
func (f MitchellFilter) Radius() float64 { return f.R }

func (f MitchellFilter) mitchell1D(x float64) float64 {
	x = math.Abs(2 * x)
	b, c := f.B, f.C
	if x > 1 {
		return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	}
	return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
}

// LanczosFilter is the windowed-sinc filter with window parameter a
// (spec.md §4.5 "Lanczos a=2").
type LanczosFilter struct {
	A float64
	R float64
}

func NewLanczosFilter(a float64) LanczosFilter {
	if a <= 0 {
		a = 2
	}
	return LanczosFilter{A: a, R: a}
}

func (f LanczosFilter) Weight(dx, dy float64) float64 {
	return f.sinc(dx) * f.sinc(dy)
}
func (f LanczosFilter) Radius() float64 { return f.R }

func (f LanczosFilter) sinc(x float64) float64 {
	x = math.Abs(x)
	if x > f.A {
		return 0
	}
	if x < 1e-6 {
		return 1
	}
	px := math.Pi * x
	return f.A * math.Sin(px) * math.Sin(px/f.A) / (px * px)
}
