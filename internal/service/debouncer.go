package service

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

// Debouncer runs at most one task per quiet window. Each call cancels the
// previous call, whether it is still waiting for its window or already running.
type Debouncer struct {
	window time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewDebouncer constructs a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	if window < 0 {
		window = 0
	}
	return &Debouncer{window: window}
}

// Do waits for the window to elapse and then runs fn. A call superseded by a
// newer one returns ErrSuperseded; cancellation of ctx returns ctx.Err().
func (d *Debouncer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	d.cancel = cancel
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.gen == gen {
			d.cancel = nil
		}
		d.mu.Unlock()
		cancel()
	}()

	timer := time.NewTimer(d.window)
	defer timer.Stop()

	select {
	case <-runCtx.Done():
		return d.interrupted(ctx, gen)
	case <-timer.C:
	}

	err := fn(runCtx)
	if runCtx.Err() != nil {
		return d.interrupted(ctx, gen)
	}
	return err
}

// Cancel aborts any pending or running call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) interrupted(ctx context.Context, gen uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	superseded := d.gen != gen
	d.mu.Unlock()
	if superseded {
		return appErrors.ErrSuperseded
	}
	return context.Canceled
}
