package renderer

import (
	"fmt"
	"runtime"

	"github.com/davecgh/go-spew/spew"

	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/control"
	"github.com/yafaray/yafacore/pkg/film"
	"github.com/yafaray/yafacore/pkg/integrator"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/rayerr"
	"github.com/yafaray/yafacore/pkg/scene"
)

func defaultNumWorkers() int { return runtime.NumCPU() }

// Driver owns the film and orchestrates tile-parallel progressive passes
// over a scene snapshot, generalising the teacher's ProgressiveRaytracer +
// WorkerPool + TileRenderer trio into a single integrator-agnostic type
// (spec.md §9 "Shared state: scene snapshot (read-only)... film
// (write-mostly, additive)").
type Driver struct {
	snap    *scene.Snapshot
	integ   integrator.Integrator
	sppm    *integrator.SPPM // non-nil iff integ is an *integrator.SPPM
	film    *film.Film
	config  Config
	log     logger.Logger
	ctrl    *control.RenderControl
	monitor control.Monitor // optional progress sink

	tiles []*film.Tile
}

// NewDriver builds a Driver over snap and runs the integrator's one-time
// Preprocess step (spec.md §6 "preprocess(scene, renderControl)").
func NewDriver(snap *scene.Snapshot, integ integrator.Integrator, config Config, log logger.Logger) (*Driver, error) {
	ctrl := &control.RenderControl{}
	if err := integ.Preprocess(snap, ctrl); err != nil {
		return nil, fmt.Errorf("integrator preprocess: %w", err)
	}
	f := film.New(snap.Sampling.Width, snap.Sampling.Height, config.ReconstructFilter, config.Gamma)
	d := &Driver{snap: snap, integ: integ, film: f, config: config, log: log, ctrl: ctrl}
	if s, ok := integ.(*integrator.SPPM); ok {
		d.sppm = s
	}
	d.tiles = film.BuildTiles(snap.Sampling.Width, snap.Sampling.Height, config.TileSize, config.TileOrder, 1)
	return d, nil
}

// Film exposes the underlying film buffer, e.g. for Flush after rendering
// completes or is cancelled.
func (d *Driver) Film() *film.Film { return d.film }

// Control exposes the render's cancellation handle (spec.md §6
// "RenderControl.cancelled()"): a caller may Cancel() it from any
// goroutine and in-flight tiles wind down cooperatively.
func (d *Driver) Control() *control.RenderControl { return d.ctrl }

// SetMonitor installs an optional progress sink receiving one update per
// completed tile (spec.md §6 "RenderMonitor.updateProgress(n)").
func (d *Driver) SetMonitor(m control.Monitor) { d.monitor = m }

// RunPass renders one progressive pass across every tile using up to
// numWorkers goroutines (0 = auto-detect), returning once every tile has
// completed; when the render's RenderControl has been cancelled, tiles not
// yet started are skipped and a Cancelled error is returned.
func (d *Driver) RunPass(pass int, numWorkers int) (PassStats, error) {
	if d.sppm != nil && pass > 1 {
		if err := d.sppm.NextPass(d.snap); err != nil {
			return PassStats{}, err
		}
	}

	addSamples := d.config.samplesForPass(pass)
	pool := newWorkerPool(numWorkers, func(t tileTask) PassStats {
		return d.renderTile(t)
	})

	for _, tile := range d.tiles {
		pool.submit(tileTask{tile: tile, pass: pass, addSamples: addSamples})
	}
	pool.stop()

	total := PassStats{PassNumber: pass, MinSamples: addSamples}
	for i := 0; i < len(d.tiles); i++ {
		res, ok := pool.result()
		if !ok {
			return PassStats{}, fmt.Errorf("renderer: worker pool closed before all tiles completed")
		}
		if res.err != nil {
			return PassStats{}, res.err
		}
		if d.monitor != nil {
			d.monitor.UpdateProgress(1)
		}
		total.TotalPixels += res.stats.TotalPixels
		total.TotalSamples += res.stats.TotalSamples
		if res.stats.MinSamples < total.MinSamples {
			total.MinSamples = res.stats.MinSamples
		}
		if res.stats.MaxSamplesUsed > total.MaxSamplesUsed {
			total.MaxSamplesUsed = res.stats.MaxSamplesUsed
		}
	}
	if total.TotalPixels > 0 {
		total.AverageSamples = float64(total.TotalSamples) / float64(total.TotalPixels)
	}
	if d.ctrl.Cancelled() {
		return total, rayerr.New(rayerr.Cancelled, "render cancelled")
	}

	if d.log != nil && d.log.Verbose() {
		d.log.Debugf("pass %d stats: %s", pass, spew.Sdump(total))
	}
	return total, nil
}

// renderTile is the per-tile work function run on a worker goroutine.
// Non-overlapping tile bounds make film writes race-free without extra
// locking (spec.md §9 "writes at pass end are serialised per pixel by
// natural tile partitioning").
func (d *Driver) renderTile(t tileTask) PassStats {
	bounds := t.tile.Bounds
	cam := d.snap.Camera
	stats := PassStats{TotalPixels: bounds.Dx() * bounds.Dy(), MinSamples: t.addSamples}

	// Tile-boundary cancellation poll (spec.md §5): a cancelled render
	// skips the whole tile; tiles already in flight finish normally.
	if d.ctrl.Cancelled() {
		stats.MinSamples = 0
		return stats
	}

	for py := bounds.MinY; py < bounds.MaxY; py++ {
		for px := bounds.MinX; px < bounds.MaxX; px++ {
			var taken int
			if d.sppm != nil {
				taken = d.sampleSPPMPixel(t, px, py)
			} else {
				taken = d.samplePathPixel(t, px, py, cam)
			}
			stats.TotalSamples += taken
			if taken < stats.MinSamples {
				stats.MinSamples = taken
			}
			if taken > stats.MaxSamplesUsed {
				stats.MaxSamplesUsed = taken
			}
		}
	}
	return stats
}

// samplePathPixel takes t.addSamples new AA samples at pixel (px,py),
// skipping entirely (after pass 1) when the pixel has already converged
// under the film's adaptive-variance gate (spec.md §4.5).
func (d *Driver) samplePathPixel(t tileTask, px, py int, cam *camera.Camera) int {
	if t.pass > 1 && !d.film.ShouldResample(px, py, d.config.AAThreshold, d.config.AADarkDetection) {
		return 0
	}

	taken := 0
	for i := 0; i < t.addSamples; i++ {
		jx, jy := t.tile.Random.Float64(), t.tile.Random.Float64()
		lensU, lensV := t.tile.Random.Float64(), t.tile.Random.Float64()
		ray := cam.ShootRay(px, py, jx, jy, lensU, lensV)
		if !ray.Valid {
			continue
		}

		st := integrator.State{StreamIndex: d.streamIndex(px, py, t.pass, i), Chromatic: true, Cancel: d.ctrl}
		result := d.integ.Integrate(d.snap, ray.R, st)
		d.film.AddSample(film.LayerCombined, px, py, jx-0.5, jy-0.5, result.Color.Mul(ray.Weight))
		taken++
	}
	return taken
}

// sampleSPPMPixel takes SPPM's one eye-sample per pixel per pass (spec.md
// §4.4 "Per pass... 2. Eye pass") and overwrites the film pixel with the
// pass's up-to-date radiance estimate.
func (d *Driver) sampleSPPMPixel(t tileTask, px, py int) int {
	cam := d.snap.Camera
	jx, jy := t.tile.Random.Float64(), t.tile.Random.Float64()
	lensU, lensV := t.tile.Random.Float64(), t.tile.Random.Float64()
	ray := cam.ShootRay(px, py, jx, jy, lensU, lensV)
	if !ray.Valid {
		return 0
	}

	st := integrator.State{StreamIndex: d.streamIndex(px, py, t.pass, 0), Chromatic: true, PixelX: px, PixelY: py, Cancel: d.ctrl}
	result := d.sppm.Integrate(d.snap, ray.R, st)
	d.film.SetPixel(film.LayerCombined, px, py, result.Color.Mul(ray.Weight))
	return 1
}

// streamIndex derives a deterministic per-(pixel,pass,sample) stream index
// for the Halton-based sampling inside the integrator (spec.md §4.2
// "Caller provides... a per-pixel sample index").
func (d *Driver) streamIndex(px, py, pass, sample int) uint64 {
	return uint64(py)*uint64(d.snap.Sampling.Width)*9781 + uint64(px)*9781 + uint64(pass)*131 + uint64(sample)
}
