package sampling

import (
	"math"
	"testing"

	"github.com/yafaray/yafacore/pkg/vec3"
)

func TestHaltonIsLowDiscrepancyAndBounded(t *testing.T) {
	for i := uint64(0); i < 1000; i++ {
		v := Halton(2, i)
		if v < 0 || v >= 1 {
			t.Fatalf("Halton(2,%d) = %v out of [0,1)", i, v)
		}
	}
	// the first 8 base-2 values land one per eighth of [0,1).
	var bins [8]int
	for i := uint64(0); i < 8; i++ {
		bins[int(Halton(2, i)*8)]++
	}
	for b, c := range bins {
		if c != 1 {
			t.Errorf("bin %d of the first 8 Halton(2,i) values holds %d, want 1", b, c)
		}
	}
}

func TestHaltonDeterministic(t *testing.T) {
	a := HaltonDim(1, 42)
	b := HaltonDim(1, 42)
	if a != b {
		t.Errorf("Halton sequence must be deterministic, got %v vs %v", a, b)
	}
}

func TestPDF1DSamplesProportionalToWeight(t *testing.T) {
	p := NewPDF1D([]float64{1, 3})
	counts := [2]int{}
	n := 20000
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n)
		idx, pdf, _ := p.DSample(u)
		if pdf <= 0 {
			t.Fatalf("expected positive pdf, got %v", pdf)
		}
		counts[idx]++
	}
	ratio := float64(counts[1]) / float64(counts[0])
	if ratio < 2.5 || ratio > 3.5 {
		t.Errorf("expected ~3x more samples in bucket 1 (weight 3 vs 1), got ratio %v", ratio)
	}
}

func TestPDF1DDegenerateAllZero(t *testing.T) {
	p := NewPDF1D([]float64{0, 0, 0})
	idx, pdf, _ := p.DSample(0.5)
	if idx < 0 || idx >= 3 {
		t.Fatalf("expected a valid bucket index, got %d", idx)
	}
	if pdf <= 0 {
		t.Errorf("degenerate distribution should still yield a usable pdf, got %v", pdf)
	}
}

func TestCosineHemisphereStaysInHemisphereAndUnit(t *testing.T) {
	n := vec3.New(0, 1, 0)
	for i := uint64(0); i < 500; i++ {
		u1, u2 := HaltonDim(2, i), HaltonDim(3, i)
		d := CosineHemisphere(n, u1, u2)
		if d.Dot(n) < 0 {
			t.Fatalf("CosineHemisphere(%v,%v) = %v fell below the normal's hemisphere", u1, u2, d)
		}
		if l := d.Length(); math.Abs(l-1) > 1e-9 {
			t.Errorf("expected a unit direction, got length %v", l)
		}
	}
}

func TestCosineHemisphereBiasedTowardNormal(t *testing.T) {
	n := vec3.New(0, 1, 0)
	var sumCos float64
	const n_ = 10000
	for i := uint64(0); i < n_; i++ {
		d := CosineHemisphere(n, HaltonDim(2, i), HaltonDim(3, i))
		sumCos += d.Dot(n)
	}
	mean := sumCos / n_
	// cosine-weighted hemisphere mean of cos(theta) is 2/3.
	if mean < 0.6 || mean > 0.72 {
		t.Errorf("expected mean cosine near 2/3, got %v", mean)
	}
}

func TestPixelSeedDeterministicAndDistinct(t *testing.T) {
	s1 := PixelSeed(3, 4, 0, 0)
	s2 := PixelSeed(3, 4, 0, 0)
	if s1 != s2 {
		t.Errorf("pixel seed must be deterministic")
	}
	s3 := PixelSeed(3, 5, 0, 0)
	if s1 == s3 {
		t.Errorf("distinct pixels should (almost certainly) produce distinct seeds")
	}
}
