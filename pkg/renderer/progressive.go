package renderer

import (
	"context"
	"image"

	"github.com/yafaray/yafacore/pkg/rayerr"
)

// PassResult is sent on RenderProgressive's pass channel after each
// completed pass, matching the teacher's renderer.PassResult.
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      PassStats
	IsLast     bool
}

// RenderProgressive drives passes 1..Config.MaxPasses, sending a PassResult
// after each and stopping early if ctx is cancelled (spec.md §8 "S6 --
// Cancellation: initiate render, cancel after 100ms; integrate returns from
// all worker threads within one additional tile"), generalising the
// teacher's channel-based RenderProgressive.
func (d *Driver) RenderProgressive(ctx context.Context, numWorkers int) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	// Bridge ctx cancellation onto the cooperative RenderControl flag the
	// workers and integrators poll (spec.md §5 "Cancellation: cooperative").
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			d.ctrl.Cancel()
		case <-watchDone:
		}
	}()

	go func() {
		defer close(passChan)
		defer close(errChan)
		defer close(watchDone)

		for pass := 1; pass <= d.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			default:
			}

			stats, err := d.RunPass(pass, numWorkers)
			if rayerr.Is(err, rayerr.Cancelled) && ctx.Err() != nil {
				errChan <- ctx.Err()
				return
			}
			if err != nil {
				errChan <- err
				return
			}

			result := PassResult{
				PassNumber: pass,
				Image:      d.film.Flush(),
				Stats:      stats,
				IsLast:     pass == d.config.MaxPasses,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return passChan, errChan
}
