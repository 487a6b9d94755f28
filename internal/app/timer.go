package app

import (
	"context"
	"sync"
	"time"
)

// DefaultTimePerQuestion is the per-question budget, in ticks, of the reference bank.
const DefaultTimePerQuestion = 45

// Severity classifies remaining time for display.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps remaining ticks to a display severity.
func SeverityFor(remaining int) Severity {
	switch {
	case remaining < 10:
		return SeverityCritical
	case remaining < 20:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Timer is a single-question countdown. It fires onExpire at most once and
// never after Stop has returned.
//
// A Timer is driven either by Start (wall-clock ticker) or by calling Tick
// directly, which is how tests and the manual clock mode advance it.
type Timer struct {
	mu        sync.Mutex
	budget    int
	remaining int
	expired   bool
	stopped   bool
	cancel    context.CancelFunc

	onExpire func()
	onTick   func(remaining int)
}

// NewTimer creates a stopped-until-ticked countdown starting at budget.
func NewTimer(budget int, onExpire func()) *Timer {
	if budget < 0 {
		budget = 0
	}
	return &Timer{
		budget:    budget,
		remaining: budget,
		onExpire:  onExpire,
	}
}

// OnTick registers a callback invoked after every decrement, outside the timer lock.
func (t *Timer) OnTick(fn func(remaining int)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Tick decrements the countdown. Reaching zero invokes the expiry callback
// exactly once; later ticks are no-ops.
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.stopped || t.expired {
		t.mu.Unlock()
		return
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	fire := remaining == 0
	if fire {
		t.expired = true
		if t.cancel != nil {
			t.cancel()
		}
	}
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if fire && onExpire != nil {
		onExpire()
	}
}

// Start ticks the timer every interval on its own goroutine until it
// expires or is stopped. Calling Start twice is a no-op.
func (t *Timer) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if t.stopped || t.expired || t.cancel != nil {
		t.mu.Unlock()
		cancel()
		return
	}
	t.cancel = cancel
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Tick()
			}
		}
	}()
}

// Stop cancels the countdown. No expiry fires after Stop returns unless it
// was already in progress; the controller guards that window separately.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
}

// Remaining returns the ticks left on the countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Severity classifies the remaining time.
func (t *Timer) Severity() Severity {
	return SeverityFor(t.Remaining())
}

// Expired reports whether the expiry callback has fired.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
