// Package control carries the cooperative cancellation and progress
// reporting collaborators of spec.md §6 ("RenderControl.cancelled()",
// "RenderMonitor.updateProgress(n)"). Cancellation is cooperative per
// spec.md §5: the flag is polled at tile boundaries, every pb_step photons
// during emission, and at the top of each integrator recursion; in-flight
// work finishes its current primitive-intersection loop and then exits.
package control

import "sync/atomic"

// RenderControl is the shared cancellation flag a render borrows. The nil
// RenderControl is valid and never cancelled, so callers that don't care
// about cancellation can pass nil all the way down.
type RenderControl struct {
	cancelled atomic.Bool
}

// Cancel requests a cooperative stop.
func (c *RenderControl) Cancel() {
	if c != nil {
		c.cancelled.Store(true)
	}
}

// Cancelled reports whether a stop has been requested.
func (c *RenderControl) Cancelled() bool {
	return c != nil && c.cancelled.Load()
}

// Monitor receives coarse progress updates (tiles completed, photons
// emitted). Implementations must tolerate concurrent calls.
type Monitor interface {
	UpdateProgress(n int)
}
