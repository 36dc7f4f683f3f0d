package sampling

import "sort"

// PDF1D is a discrete-distribution sampler built from a finite set of
// (non-negative) weights, used to draw a light proportional to its total
// energy (spec.md §4.3 "Build PDF1D over lights' totalEnergy") via
// inversion over a precomputed CDF (spec.md GLOSSARY "PDF1D").
type PDF1D struct {
	funcs    []float64
	cdf      []float64 // len(funcs)+1
	integral float64    // average function value (the normalising constant)
}

// NewPDF1D builds the CDF for the given non-negative weights. A
// degenerate all-zero input still builds a valid (uniform) distribution so
// callers never need to special-case it.
func NewPDF1D(weights []float64) *PDF1D {
	n := len(weights)
	p := &PDF1D{funcs: append([]float64(nil), weights...), cdf: make([]float64, n+1)}
	sum := 0.0
	for i, w := range weights {
		sum += w
		p.cdf[i+1] = sum
	}
	if sum == 0 {
		// degenerate: fall back to a uniform distribution over n buckets.
		for i := range p.cdf {
			p.cdf[i] = float64(i) / float64(max(n, 1))
		}
		p.integral = 1
		return p
	}
	for i := range p.cdf {
		p.cdf[i] /= sum
	}
	p.integral = sum / float64(n)
	return p
}

// DSample inverts the CDF at u in [0,1) and returns the discrete index,
// its probability mass scaled by Count() (1 for a uniform distribution),
// and a remapped [0,1) offset useful as a fresh random number for further
// sampling within the chosen bucket.
func (p *PDF1D) DSample(u float64) (index int, pdf float64, remapped float64) {
	n := len(p.funcs)
	if n == 0 {
		return 0, 0, 0
	}
	i := sort.Search(n, func(i int) bool { return p.cdf[i+1] > u })
	if i >= n {
		i = n - 1
	}
	lo, hi := p.cdf[i], p.cdf[i+1]
	du := hi - lo
	if du == 0 {
		remapped = 0
	} else {
		remapped = (u - lo) / du
	}
	pdf = du * float64(n)
	return i, pdf, remapped
}

// Pdf returns the discrete probability mass of bucket i scaled by Count(),
// the same value DSample reports for it.
func (p *PDF1D) Pdf(i int) float64 {
	if i < 0 || i >= len(p.funcs) {
		return 0
	}
	return (p.cdf[i+1] - p.cdf[i]) * float64(len(p.funcs))
}

// Count returns the number of buckets.
func (p *PDF1D) Count() int { return len(p.funcs) }
