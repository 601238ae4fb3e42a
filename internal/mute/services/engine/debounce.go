package engine

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into a single fire on C after a
// quiet period. At most one fire is pending at any time; a new trigger
// restarts the window.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	t  *time.Timer
	c  chan struct{}
}

func newDebouncer(d time.Duration) *debouncer {
	return &debouncer{
		d: d,
		c: make(chan struct{}, 1),
	}
}

// Trigger arms the timer, replacing any pending fire.
func (b *debouncer) Trigger() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.t != nil {
		b.t.Stop()
	}
	b.t = time.AfterFunc(b.d, b.fire)
}

// C fires once per quiet period following one or more triggers.
func (b *debouncer) C() <-chan struct{} {
	return b.c
}

// Stop cancels any pending fire, including one already delivered but not yet
// consumed. The debouncer remains usable.
func (b *debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.t != nil {
		b.t.Stop()
		b.t = nil
	}
	select {
	case <-b.c:
	default:
	}
}

func (b *debouncer) fire() {
	select {
	case b.c <- struct{}{}:
	default:
	}
}
