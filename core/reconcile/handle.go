package reconcile

import (
	"context"
	"sync"
)

// RunHandle tracks a run started with Orchestrator.Start.
type RunHandle struct {
	run    *run
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	result *Result
	err    error
}

// ID returns the run id.
func (h *RunHandle) ID() string {
	return h.run.id
}

// Phase returns the current phase of the run.
func (h *RunHandle) Phase() Phase {
	return h.run.Phase()
}

// Stats returns the live counters of the run.
func (h *RunHandle) Stats() StatsSnapshot {
	return h.run.acc.stats.Snapshot()
}

// Cancel requests cancellation. In-flight batches still complete.
func (h *RunHandle) Cancel() {
	h.cancel()
}

// Done is closed when the run reached a terminal phase.
func (h *RunHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run ends or ctx is done.
func (h *RunHandle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a finished run, or nil while it is running.
func (h *RunHandle) Result() (*Result, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.result, h.err
}

// SetResult replaces the stored outcome, e.g. after a successful re-render.
func (h *RunHandle) SetResult(res *Result, err error) {
	h.mu.Lock()
	h.result, h.err = res, err
	h.mu.Unlock()
	if res != nil {
		h.run.phase.Store(res.Phase)
	}
}

func (h *RunHandle) finish(res *Result, err error) {
	h.mu.Lock()
	h.result, h.err = res, err
	h.mu.Unlock()
	close(h.done)
}
