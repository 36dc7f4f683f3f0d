// Package renderer drives tile-parallel progressive rendering: a worker
// pool of goroutines pulls tiles from the film in the configured order,
// shoots camera rays through the active integrator, and splats results back
// into the film's reconstruction-filtered buffer (spec.md §4.5 "Film and
// tile driver", §9 "Suspension points... tile queue pop"), generalising the
// teacher's pkg/renderer.{ProgressiveRaytracer,WorkerPool,TileRenderer}.
package renderer

import (
	"github.com/yafaray/yafacore/pkg/film"
)

// Config holds the per-render tuning knobs the teacher's
// ProgressiveConfig/SamplingConfig split between them, extended with the
// adaptive-AA and tile-order knobs spec.md §4.5 adds.
type Config struct {
	TileSize   int // spec.md §4.5 "tile_size x tile_size"
	NumWorkers int // 0 = auto-detect CPU count

	AASamples    int     // initial AA sample count
	AAIncSamples int     // additional samples added per pass
	AAMultiplier float64 // pass p >= 2 adds AAIncSamples * AAMultiplier^(p-2)
	MaxPasses    int

	AAThreshold       float64 // per-channel variance gate, spec.md §4.5
	AADarkDetection   film.DarkDetection
	TileOrder         film.Order
	Gamma             float64
	ReconstructFilter film.Filter
}

// DefaultConfig mirrors the teacher's DefaultProgressiveConfig defaults,
// adapted to spec.md §4.5's AA_samples/AA_inc_samples/multiplier scheme.
func DefaultConfig() Config {
	return Config{
		TileSize:          32,
		NumWorkers:        0,
		AASamples:         1,
		AAIncSamples:      2,
		AAMultiplier:      2,
		MaxPasses:         7,
		AAThreshold:       0.02,
		AADarkDetection:   film.DarkDetectionLinear,
		TileOrder:         film.OrderLinear,
		Gamma:             2.2,
		ReconstructFilter: film.NewBoxFilter(),
	}
}

// samplesForPass returns the additional sample count pass p (1-based)
// should add for every still-unconverged pixel: AASamples on pass 1, then
// AAIncSamples * AAMultiplier^(p-2), at least 1, on each later pass.
func (c Config) samplesForPass(pass int) int {
	if pass <= 1 {
		return c.AASamples
	}
	mult := 1.0
	for i := 1; i < pass-1; i++ {
		mult *= c.AAMultiplier
	}
	n := int(float64(c.AAIncSamples) * mult)
	if n < 1 {
		n = 1
	}
	return n
}
