package renderer

import "github.com/yafaray/yafacore/pkg/film"

// tileTask is one tile-render unit of work, matching the teacher's
// renderer.TileTask shape minus the shared-array plumbing film.Film now
// owns internally.
type tileTask struct {
	tile       *film.Tile
	pass       int
	addSamples int // Path: additional AA samples to take this pass; SPPM: ignored (always 1 eye sample/pixel/pass)
}

type tileResult struct {
	taskID int
	stats  PassStats
	err    error
}

// workerPool is a fixed-size pool of goroutines draining a shared tile
// queue, generalising the teacher's renderer.WorkerPool/Worker to be
// integrator-agnostic: each worker just calls back into the driver's
// renderTile method.
type workerPool struct {
	tasks   chan tileTask
	results chan tileResult
	render  func(tileTask) PassStats
	done    chan struct{}
}

func newWorkerPool(numWorkers int, render func(tileTask) PassStats) *workerPool {
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers()
	}
	wp := &workerPool{
		tasks:   make(chan tileTask, 4096),
		results: make(chan tileResult, 4096),
		render:  render,
		done:    make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		go wp.run()
	}
	return wp
}

func (wp *workerPool) run() {
	for task := range wp.tasks {
		stats := wp.render(task)
		wp.results <- tileResult{taskID: task.tile.ID, stats: stats}
	}
}

func (wp *workerPool) submit(t tileTask) { wp.tasks <- t }

func (wp *workerPool) result() (tileResult, bool) {
	r, ok := <-wp.results
	return r, ok
}

func (wp *workerPool) stop() { close(wp.tasks) }
