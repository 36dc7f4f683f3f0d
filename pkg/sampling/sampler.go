package sampling

import (
	"math"
	"math/rand"

	"github.com/yafaray/yafacore/pkg/vec3"
)

// PixelSeed derives a deterministic RNG seed from (pixel_x, pixel_y, pass,
// sample_index), per spec.md §5 "the seed must not depend on wall-clock or
// thread id". The mix is a standard SplitMix64-style finalizer so nearby
// pixels/passes don't produce correlated low bits.
func PixelSeed(px, py, pass, sampleIndex int) uint64 {
	h := uint64(px)*2654435761 ^ uint64(py)*40503 ^ uint64(pass)*2246822519 ^ uint64(sampleIndex)*3266489917
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// NewPixelRand returns a *rand.Rand seeded deterministically for the given
// pixel coordinates, pass and sample index.
func NewPixelRand(px, py, pass, sampleIndex int) *rand.Rand {
	return rand.New(rand.NewSource(int64(PixelSeed(px, py, pass, sampleIndex))))
}

// StratifiedOffset computes the Halton sample start offset for the loffs'th
// light sample of n_L draws at a given pixel sample, per spec.md §4.2:
// "start offset pixelSample * n_L + samplingOffs + loffs*delta".
func StratifiedOffset(pixelSample, nL, samplingOffs, loffs int, delta uint64) uint64 {
	return uint64(pixelSample*nL+samplingOffs) + uint64(loffs)*delta
}

// Sample2D is a pair of uniform samples in [0,1) used for 2D strategies
// (BSDF sampling, light-surface sampling, lens sampling).
type Sample2D struct{ U, V float64 }

// Halton2D returns the (dims 0,1) Halton pair at the given index, the
// common case for light and BSDF stratification (spec.md §4.2).
func Halton2D(index uint64) Sample2D {
	return Sample2D{U: HaltonDim(0, index), V: HaltonDim(1, index)}
}

// CosineHemisphere maps a uniform (u1,u2) pair to a direction drawn from the
// cosine-weighted hemisphere about n, via Malley's method (polar-coordinate
// disk sample lifted onto the hemisphere), used by the ambient-occlusion layer
// (spec.md §4.2 "cosine-hemisphere-sample n_AO rays").
func CosineHemisphere(n vec3.Vec3, u1, u2 float64) vec3.Vec3 {
	t, b := vec3.Basis(n)
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	x, y := r*math.Cos(phi), r*math.Sin(phi)
	z := math.Sqrt(math.Max(0, 1-u1))
	return t.Mul(x).Add(b.Mul(y)).Add(n.Mul(z)).Unit()
}
