package engine

import (
	"time"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// Stats reports lightweight engine activity counters.
// All fields are best-effort snapshots and may be updated concurrently.
type Stats struct {
	Counter    int                     // hidden on the current page since the last navigation
	Scans      int                     // scans run since construction
	Hidden     int                     // elements hidden since construction
	ByCategory map[domain.Category]int // hidden since construction, per category
	LastScan   time.Time               // completion time of the most recent scan
}

// Stats returns a snapshot of the engine's activity counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	by := make(map[domain.Category]int, len(e.byCategory))
	for c, n := range e.byCategory {
		by[c] = n
	}
	return Stats{
		Counter:    e.counter,
		Scans:      e.scans,
		Hidden:     e.hiddenAll,
		ByCategory: by,
		LastScan:   e.lastScan,
	}
}

// counterValue returns the current per-page hidden counter.
func (e *Engine) counterValue() int {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.counter
}

// resetCounter zeroes the per-page counter. Called once per navigation.
func (e *Engine) resetCounter() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.counter = 0
}

// noteHidden records one visibility transition for a category.
func (e *Engine) noteHidden(c domain.Category) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.counter++
	e.hiddenAll++
	e.byCategory[c]++
}

// noteScan stamps the completion of a scan.
func (e *Engine) noteScan() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.scans++
	e.lastScan = e.clock.Now()
}
