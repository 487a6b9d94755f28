package app

import (
	"context"
	"sync"
)

// WorkGroup counts completion work launched by controllers so shutdown can
// wait for finished attempts to be saved and synced. A nil *WorkGroup
// tracks nothing.
type WorkGroup struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (w *WorkGroup) begin() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.n == 0 {
		w.idle = make(chan struct{})
	}
	w.n++
}

func (w *WorkGroup) end() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.n--
	if w.n == 0 {
		close(w.idle)
	}
}

// Pending reports how many completions are still running.
func (w *WorkGroup) Pending() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Wait blocks until no completion is running or ctx is done.
func (w *WorkGroup) Wait(ctx context.Context) error {
	if w == nil {
		return nil
	}
	for {
		w.mu.Lock()
		if w.n == 0 {
			w.mu.Unlock()
			return nil
		}
		idle := w.idle
		w.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
