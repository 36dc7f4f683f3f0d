package photon

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func randomPhotons(n int, seed int64) []Photon {
	rnd := rand.New(rand.NewSource(seed))
	ps := make([]Photon, n)
	for i := range ps {
		ps[i] = Photon{
			Pos:   vec3.New(rnd.Float64()*10-5, rnd.Float64()*10-5, rnd.Float64()*10-5),
			DirIn: vec3.New(0, -1, 0),
			Power: color.New(1, 1, 1),
		}
	}
	return ps
}

// Every photon handed to Build must be reachable by a gather, for every
// tree size -- including the sizes that don't fill a complete binary tree.
func TestBuildKeepsEveryPhoton(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 6, 7, 12, 100, 1000} {
		m := Build(randomPhotons(n, int64(n)), n)
		if m.NumPhotons() != n {
			t.Fatalf("n=%d: NumPhotons() = %d", n, m.NumPhotons())
		}
		found, _ := m.Gather(vec3.New(0, 0, 0), n, 1e9)
		if len(found) != n {
			t.Errorf("n=%d: unbounded gather returned %d photons, want all %d", n, len(found), n)
		}
	}
}

// Gather must agree with a brute-force k-nearest-within-radius scan.
func TestGatherMatchesBruteForce(t *testing.T) {
	ps := randomPhotons(500, 99)
	m := Build(ps, len(ps))

	queries := []struct {
		p  vec3.Vec3
		k  int
		r2 float64
	}{
		{vec3.New(0, 0, 0), 10, 4},
		{vec3.New(2, -1, 3), 25, 9},
		{vec3.New(-4, 4, -4), 5, 1},
		{vec3.New(0, 0, 0), 1000, 0.5},
	}
	for _, q := range queries {
		got, _ := m.Gather(q.p, q.k, q.r2)

		var want []float64
		for _, ph := range ps {
			d2 := ph.Pos.Sub(q.p).LengthSquared()
			if d2 <= q.r2 {
				want = append(want, d2)
			}
		}
		sort.Float64s(want)
		if len(want) > q.k {
			want = want[:q.k]
		}

		if len(got) != len(want) {
			t.Fatalf("query %+v: got %d photons, want %d", q, len(got), len(want))
		}
		for i := range got {
			if absf(got[i].Dist2-want[i]) > 1e-12 {
				t.Errorf("query %+v: photon %d dist2 = %v, want %v", q, i, got[i].Dist2, want[i])
			}
		}
	}
}

func TestGatherShrinksSearchRadiusWhenHeapFills(t *testing.T) {
	ps := randomPhotons(200, 5)
	m := Build(ps, len(ps))
	const r2 = 25.0
	found, final := m.Gather(vec3.New(0, 0, 0), 8, r2)
	if len(found) != 8 {
		t.Fatalf("expected the heap to fill (8 photons), got %d", len(found))
	}
	if final >= r2 {
		t.Errorf("final radius %v should have shrunk below the initial %v", final, r2)
	}
	if final != found[len(found)-1].Dist2 {
		t.Errorf("final radius %v should equal the furthest retained photon's dist2 %v", final, found[len(found)-1].Dist2)
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
