// Package engine implements the content filter service. It consumes page
// change events, evaluates content elements against the rule store, hides
// matches, tracks the per-page hidden counter, and reports the counter to
// the badge surface. It also answers the cleanup queries used by the
// settings surface.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haukened/rr-mute/internal/mute/common/clock"
	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/domain"
)

// DefaultDebounce is the quiet period applied to mutation bursts before a
// rescan runs.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a filter Engine. Page, Feed, Rules and Records are
// required; Badge, Logger, Clock and Debounce default when unset.
type Options struct {
	Page     Page
	Feed     PageFeed
	Rules    Rules
	Records  RecordSource
	Badge    Badge
	Logger   log.Logger
	Clock    clock.Clock
	Debounce time.Duration
}

// Engine drives filter scans from page events. All hiding happens on a
// single goroutine started by Start; the cleanup queries only read the page
// and rule store and may be called concurrently with it.
type Engine struct {
	page    Page
	feed    PageFeed
	rules   Rules
	records RecordSource
	badge   Badge
	logger  log.Logger
	clock   clock.Clock
	deb     *debouncer

	// Synchronization for graceful shutdown
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Activity counters, guarded separately so Stats never contends with
	// lifecycle calls.
	statsMu    sync.Mutex
	counter    int
	scans      int
	hiddenAll  int
	byCategory map[domain.Category]int
	lastScan   time.Time
}

// nopBadge discards reports. Used when no badge surface is configured.
type nopBadge struct{}

func (nopBadge) Report(int) {}

// New creates a filter Engine from the given options.
func New(opts Options) *Engine {
	if opts.Badge == nil {
		opts.Badge = nopBadge{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Engine{
		page:       opts.Page,
		feed:       opts.Feed,
		rules:      opts.Rules,
		records:    opts.Records,
		badge:      opts.Badge,
		logger:     opts.Logger,
		clock:      opts.Clock,
		deb:        newDebouncer(opts.Debounce),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		byCategory: make(map[domain.Category]int),
	}
}

// Start loads the rules, runs the initial scan, and begins consuming page
// events. The initial scan completes before Start returns.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("filter engine already running")
	}
	e.running = true
	e.mu.Unlock()

	e.pass()

	e.logger.Info(map[string]any{
		"location": e.page.Location(),
		"debounce": e.deb.d.String(),
	}, "filter engine started")

	go e.run(ctx)

	return nil
}

// Stop shuts down the event loop and waits for it to finish.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	<-e.doneCh
	e.deb.Stop()

	e.logger.Info(nil, "filter engine stopped")
	return nil
}

// Location returns the observed page's current URL.
func (e *Engine) Location() string {
	return e.page.Location()
}

// run is the engine event loop. Navigation rescans immediately; mutation
// bursts coalesce through the debouncer.
func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	events := e.feed.Events()
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug(nil, "filter engine stopping due to context cancellation")
			return
		case <-e.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				// Feed shut down; keep serving the debouncer until stopped.
				events = nil
				continue
			}
			e.handle(ev)
		case <-e.deb.C():
			e.pass()
		}
	}
}

// handle dispatches one page event.
func (e *Engine) handle(ev domain.PageEvent) {
	switch ev.Kind {
	case domain.PageNavigation:
		// A pending mutation scan belongs to the previous page.
		e.deb.Stop()
		e.resetCounter()
		e.logger.Debug(map[string]any{
			"location": ev.Location,
		}, "page navigation")
		e.pass()
	case domain.PageMutation:
		if ev.Added < 1 {
			return
		}
		e.deb.Trigger()
	}
}

// pass runs one full filter pass: reload rules, scan, report the counter.
func (e *Engine) pass() {
	e.reload()
	hidden := e.scan()
	count := e.counterValue()
	e.badge.Report(count)
	e.logger.Debug(map[string]any{
		"hidden":  hidden,
		"counter": count,
	}, "filter pass complete")
}

// reload replaces the rule set from storage. On failure the previous rules
// stay active and the next pass retries.
func (e *Engine) reload() {
	rec, err := e.records.Load()
	if err != nil {
		e.logger.Warn(map[string]any{
			"error": err.Error(),
		}, "rule reload failed")
		return
	}
	e.rules.Reload(rec)
}
