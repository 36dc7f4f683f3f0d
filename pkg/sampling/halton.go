// Package sampling provides the low-discrepancy sequences, discrete
// distribution sampler, and per-sample seeding used by the integrators
// (spec.md §4.2 "stratified Halton", §4.3 emission, §GLOSSARY "Halton
// sequence", "PDF1D").
package sampling

// Halton returns the index'th value of the radical-inverse Halton sequence
// in the given prime base. Dimension 0 conventionally uses base 2,
// dimension 1 uses base 3, and so on (spec.md §4.2 "stratified Halton in
// dims (2,3)").
func Halton(base int, index uint64) float64 {
	f := 1.0
	r := 0.0
	b := float64(base)
	for index > 0 {
		f /= b
		r += f * float64(index%uint64(base))
		index /= uint64(base)
	}
	return r
}

// Primes lists the first 32 primes, used as Halton bases for successive
// sampling dimensions.
var Primes = [...]int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
	59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131}

// HaltonDim returns the Halton sequence value for sampling dimension d
// (0-indexed; d=0 -> base 2, d=1 -> base 3, ...). Dimensions past the end
// of Primes all reuse the largest listed prime, so they return the same
// value for the same index.
func HaltonDim(d int, index uint64) float64 {
	if d < 0 {
		d = 0
	}
	if d >= len(Primes) {
		d = len(Primes) - 1
	}
	return Halton(Primes[d], index)
}

// VanDerCorput is the base-2 radical inverse, used by SPPM's per-pixel
// pass jitter (spec.md §4.4 "Van-der-Corput, scrambled-Sobol").
func VanDerCorput(index uint32, scramble uint32) float64 {
	bits := index
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	bits ^= scramble
	return float64(bits) / 4294967296.0
}

// Sobol2 is a minimal base-2 Sobol sequence (dimension 2 direction
// numbers), paired with VanDerCorput to build the jittered (dx,dy) pairs
// SPPM's eye pass uses (spec.md §4.4 step 2).
func Sobol2(index uint32, scramble uint32) float64 {
	var result uint32
	var v uint32 = 1 << 31
	for i := index; i != 0; i >>= 1 {
		if i&1 != 0 {
			result ^= v
		}
		v ^= v >> 1
	}
	result ^= scramble
	return float64(result) / 4294967296.0
}
