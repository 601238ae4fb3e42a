package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-mute/internal/mute/common/clock"
	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/domain"
	"github.com/haukened/rr-mute/internal/mute/repos/rules"
)

const (
	listingURL = "https://old.reddit.com/r/all/"
	threadURL  = "https://old.reddit.com/r/funny/comments/abc123/some_thread/"
)

// fakePage mimics the page source contract: a mutable element list with a
// hidden overlay keyed by fullname.
type fakePage struct {
	mu       sync.Mutex
	location string
	things   []domain.Thing
	hidden   map[string]struct{}
}

func newFakePage(location string, things ...domain.Thing) *fakePage {
	return &fakePage{
		location: location,
		things:   things,
		hidden:   make(map[string]struct{}),
	}
}

func (p *fakePage) Location() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location
}

func (p *fakePage) Things() []domain.Thing {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Thing, len(p.things))
	for i, t := range p.things {
		if _, ok := p.hidden[t.Fullname]; ok {
			t.Visible = false
		}
		out[i] = t
	}
	return out
}

func (p *fakePage) Hide(fullname string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.hidden[fullname]; ok {
		return false
	}
	p.hidden[fullname] = struct{}{}
	return true
}

func (p *fakePage) navigate(location string, things ...domain.Thing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = location
	p.things = things
	p.hidden = make(map[string]struct{})
}

func (p *fakePage) add(things ...domain.Thing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.things = append(p.things, things...)
}

func (p *fakePage) isHidden(fullname string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.hidden[fullname]
	return ok
}

// stubFeed is a hand-driven page event feed.
type stubFeed struct {
	ch chan domain.PageEvent
}

func newStubFeed() *stubFeed {
	return &stubFeed{ch: make(chan domain.PageEvent, 8)}
}

func (f *stubFeed) Events() <-chan domain.PageEvent { return f.ch }

// fakeRecords serves a configurable record, optionally failing.
type fakeRecords struct {
	mu  sync.Mutex
	rec domain.Record
	err error
}

func (f *fakeRecords) Load() (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Record{}, f.err
	}
	return f.rec, nil
}

func (f *fakeRecords) set(rec domain.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec = rec
	f.err = nil
}

func (f *fakeRecords) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeBadge records every reported count.
type fakeBadge struct {
	mu      sync.Mutex
	reports []int
}

func (b *fakeBadge) Report(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, count)
}

func (b *fakeBadge) last() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.reports) == 0 {
		return 0, false
	}
	return b.reports[len(b.reports)-1], true
}

// recordingLogger captures log calls by level.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	fields map[string]any
	msg    string
}

func (l *recordingLogger) record(level string, fields map[string]any, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, fields: fields, msg: msg})
}

func (l *recordingLogger) Debug(f map[string]any, m string) { l.record("debug", f, m) }
func (l *recordingLogger) Info(f map[string]any, m string)  { l.record("info", f, m) }
func (l *recordingLogger) Warn(f map[string]any, m string)  { l.record("warn", f, m) }
func (l *recordingLogger) Error(f map[string]any, m string) { l.record("error", f, m) }
func (l *recordingLogger) Panic(f map[string]any, m string) { l.record("panic", f, m) }
func (l *recordingLogger) Fatal(f map[string]any, m string) { l.record("fatal", f, m) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

// Interface checks for the fakes.
var (
	_ Page         = (*fakePage)(nil)
	_ PageFeed     = (*stubFeed)(nil)
	_ RecordSource = (*fakeRecords)(nil)
	_ Badge        = (*fakeBadge)(nil)
)

// Mock implementations for testing
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) Load() (domain.Record, error) {
	args := m.Called()
	return args.Get(0).(domain.Record), args.Error(1)
}

type MockBadge struct {
	mock.Mock
}

func (m *MockBadge) Report(count int) {
	m.Called(count)
}

func post(fullname, author, title, subreddit, linkDomain string) domain.Thing {
	return domain.Thing{
		Fullname:  fullname,
		Kind:      domain.KindPost,
		Visible:   true,
		Author:    author,
		Title:     title,
		Subreddit: subreddit,
		Domain:    linkDomain,
	}
}

func comment(fullname, author string) domain.Thing {
	return domain.Thing{
		Fullname: fullname,
		Kind:     domain.KindComment,
		Visible:  true,
		Author:   author,
	}
}

func allOn() domain.Preferences {
	return domain.Preferences{
		FilterUsers:      true,
		FilterKeywords:   true,
		FilterSubreddits: true,
		FilterDomains:    true,
		EnableSync:       true,
	}
}

type testHarness struct {
	engine *Engine
	page   *fakePage
	feed   *stubFeed
	recs   *fakeRecords
	badge  *fakeBadge
	clock  *clock.MockClock
}

func newTestHarness(t *testing.T, page *fakePage, rec domain.Record) *testHarness {
	t.Helper()
	store, err := rules.New(rules.DefaultHostCacheSize, rules.DefaultBloomFPRate)
	require.NoError(t, err)

	feed := newStubFeed()
	recs := &fakeRecords{rec: rec}
	badge := &fakeBadge{}
	clk := &clock.MockClock{CurrentTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	e := New(Options{
		Page:     page,
		Feed:     feed,
		Rules:    store,
		Records:  recs,
		Badge:    badge,
		Logger:   log.NewNoopLogger(),
		Clock:    clk,
		Debounce: 20 * time.Millisecond,
	})
	return &testHarness{engine: e, page: page, feed: feed, recs: recs, badge: badge, clock: clk}
}

func TestEngine_InitialScanHidesAndReports(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "Normal title", "golang", ""),
		post("t3_b", "someone", "Huge SALE this weekend", "golang", ""),
		post("t3_c", "someone", "Quiet morning", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users:    []string{"spammer"},
		Keywords: []string{"sale"},
		Prefs:    allOn(),
	})

	require.NoError(t, h.engine.Start(context.Background()))
	defer h.engine.Stop()

	assert.True(t, page.isHidden("t3_a"))
	assert.True(t, page.isHidden("t3_b"))
	assert.False(t, page.isHidden("t3_c"))

	count, ok := h.badge.last()
	require.True(t, ok, "expected a badge report after the initial scan")
	assert.Equal(t, 2, count)

	stats := h.engine.Stats()
	assert.Equal(t, 2, stats.Counter)
	assert.Equal(t, 1, stats.ByCategory[domain.CategoryUser])
	assert.Equal(t, 1, stats.ByCategory[domain.CategoryKeyword])
}

func TestEngine_RescanDoesNotDoubleCount(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "whatever", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()
	h.engine.pass()

	stats := h.engine.Stats()
	assert.Equal(t, 1, stats.Counter)
	assert.Equal(t, 1, stats.Hidden)

	count, ok := h.badge.last()
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestEngine_ListingModeSkipsComments(t *testing.T) {
	page := newFakePage(listingURL,
		comment("t1_x", "spammer"),
		post("t3_a", "spammer", "title", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()

	assert.False(t, page.isHidden("t1_x"))
	assert.True(t, page.isHidden("t3_a"))
}

func TestEngine_ThreadModeSkipsPosts(t *testing.T) {
	page := newFakePage(threadURL,
		post("t3_op", "spammer", "thread title", "funny", ""),
		comment("t1_a", "spammer"),
		comment("t1_b", "regular"),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()

	assert.False(t, page.isHidden("t3_op"), "thread scans must not evaluate the submission itself")
	assert.True(t, page.isHidden("t1_a"))
	assert.False(t, page.isHidden("t1_b"))
}

func TestEngine_InvisibleElementsNotEvaluated(t *testing.T) {
	collapsed := post("t3_a", "spammer", "title", "golang", "")
	collapsed.Visible = false
	page := newFakePage(listingURL, collapsed)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()

	assert.False(t, page.isHidden("t3_a"))
	assert.Equal(t, 0, h.engine.Stats().Counter)
}

func TestEngine_MutationTriggersDebouncedRescan(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "regular", "title", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	require.NoError(t, h.engine.Start(context.Background()))
	defer h.engine.Stop()

	page.add(post("t3_new", "spammer", "late arrival", "golang", ""))
	h.feed.ch <- domain.PageEvent{Kind: domain.PageMutation, Added: 1, Location: listingURL}

	// The badge report is the final step of a pass, so waiting on it means
	// the whole rescan finished.
	require.Eventually(t, func() bool {
		count, ok := h.badge.last()
		return ok && count == 1
	}, time.Second, 5*time.Millisecond)

	assert.True(t, page.isHidden("t3_new"))
}

func TestEngine_NavigationResetsCounter(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "one", "golang", ""),
		post("t3_b", "spammer", "two", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	require.NoError(t, h.engine.Start(context.Background()))
	defer h.engine.Stop()
	require.Equal(t, 2, h.engine.Stats().Counter)

	next := "https://old.reddit.com/r/golang/"
	page.navigate(next, post("t3_c", "spammer", "three", "golang", ""))
	h.feed.ch <- domain.PageEvent{Kind: domain.PageNavigation, Location: next}

	require.Eventually(t, func() bool {
		count, ok := h.badge.last()
		return ok && count == 1
	}, time.Second, 5*time.Millisecond)

	assert.True(t, page.isHidden("t3_c"))
	stats := h.engine.Stats()
	assert.Equal(t, 1, stats.Counter, "counter must restart at the new page")
	assert.Equal(t, 3, stats.Hidden, "lifetime total keeps accumulating")
}

func TestEngine_MutationWithoutAdditionsIgnored(t *testing.T) {
	page := newFakePage(listingURL)
	h := newTestHarness(t, page, domain.Record{Prefs: allOn()})

	h.engine.handle(domain.PageEvent{Kind: domain.PageMutation, Added: 0})
	h.engine.deb.mu.Lock()
	armed := h.engine.deb.t != nil
	h.engine.deb.mu.Unlock()
	assert.False(t, armed)

	h.engine.handle(domain.PageEvent{Kind: domain.PageMutation, Added: 1})
	h.engine.deb.mu.Lock()
	armed = h.engine.deb.t != nil
	h.engine.deb.mu.Unlock()
	assert.True(t, armed)
	h.engine.deb.Stop()
}

func TestEngine_ReloadFailureKeepsPreviousRules(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "one", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()
	require.True(t, page.isHidden("t3_a"))

	h.recs.fail(errors.New("storage unavailable"))
	page.add(post("t3_b", "spammer", "two", "golang", ""))
	h.engine.pass()

	assert.True(t, page.isHidden("t3_b"), "previous rules stay active when reload fails")
	assert.Equal(t, 2, h.engine.Stats().Counter)
}

func TestEngine_ReloadReplacesRules(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "one", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()
	require.True(t, page.isHidden("t3_a"))

	h.recs.set(domain.Record{Prefs: allOn()})
	page.add(post("t3_b", "spammer", "two", "golang", ""))
	h.engine.pass()

	assert.False(t, page.isHidden("t3_b"), "removed rules must stop matching after reload")
	assert.True(t, page.isHidden("t3_a"), "already-hidden elements stay hidden")
}

func TestEngine_PassReloadsAndReports(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "title", "golang", ""),
	)
	store, err := rules.New(rules.DefaultHostCacheSize, rules.DefaultBloomFPRate)
	require.NoError(t, err)

	recs := &MockRecordSource{}
	recs.On("Load").Return(domain.Record{Users: []string{"spammer"}, Prefs: allOn()}, nil).Twice()
	badge := &MockBadge{}
	badge.On("Report", 1).Return().Twice()

	e := New(Options{
		Page:    page,
		Feed:    newStubFeed(),
		Rules:   store,
		Records: recs,
		Badge:   badge,
		Logger:  log.NewNoopLogger(),
	})

	e.pass()
	e.pass()

	recs.AssertExpectations(t)
	badge.AssertExpectations(t)
}

func TestEngine_ReportSentEvenWhenReloadFails(t *testing.T) {
	page := newFakePage(listingURL)
	store, err := rules.New(rules.DefaultHostCacheSize, rules.DefaultBloomFPRate)
	require.NoError(t, err)

	recs := &MockRecordSource{}
	recs.On("Load").Return(domain.Record{}, errors.New("store closed")).Once()
	badge := &MockBadge{}
	badge.On("Report", 0).Return().Once()

	e := New(Options{
		Page:    page,
		Feed:    newStubFeed(),
		Rules:   store,
		Records: recs,
		Badge:   badge,
		Logger:  log.NewNoopLogger(),
	})

	e.pass()

	recs.AssertExpectations(t)
	badge.AssertExpectations(t)
}

func TestEngine_HiddenLoggingFollowsPreference(t *testing.T) {
	rec := domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	}

	build := func(logging bool) (*Engine, *recordingLogger) {
		rec := rec
		rec.Prefs.LoggingEnabled = logging
		store, err := rules.New(rules.DefaultHostCacheSize, rules.DefaultBloomFPRate)
		require.NoError(t, err)
		logger := &recordingLogger{}
		e := New(Options{
			Page:    newFakePage(listingURL, post("t3_a", "spammer", "title", "golang", "")),
			Feed:    newStubFeed(),
			Rules:   store,
			Records: &fakeRecords{rec: rec},
			Badge:   &fakeBadge{},
			Logger:  logger,
		})
		return e, logger
	}

	e, logger := build(false)
	e.pass()
	assert.NotContains(t, logger.messages("info"), "content hidden")

	e, logger = build(true)
	e.pass()
	assert.Contains(t, logger.messages("info"), "content hidden")
}

func TestEngine_StartTwiceFails(t *testing.T) {
	page := newFakePage(listingURL)
	h := newTestHarness(t, page, domain.Record{Prefs: allOn()})

	require.NoError(t, h.engine.Start(context.Background()))
	defer h.engine.Stop()

	assert.Error(t, h.engine.Start(context.Background()))
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	page := newFakePage(listingURL)
	h := newTestHarness(t, page, domain.Record{Prefs: allOn()})

	assert.NoError(t, h.engine.Stop(), "stopping a never-started engine is a no-op")

	require.NoError(t, h.engine.Start(context.Background()))
	assert.NoError(t, h.engine.Stop())
	assert.NoError(t, h.engine.Stop())
}

func TestEngine_SurvivesFeedShutdown(t *testing.T) {
	page := newFakePage(listingURL)
	h := newTestHarness(t, page, domain.Record{Prefs: allOn()})

	require.NoError(t, h.engine.Start(context.Background()))
	close(h.feed.ch)

	// The loop must keep running after the feed closes and still stop cleanly.
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, h.engine.Stop())
}

func TestEngine_StatsSnapshot(t *testing.T) {
	page := newFakePage(listingURL,
		post("t3_a", "spammer", "title", "golang", ""),
	)
	h := newTestHarness(t, page, domain.Record{
		Users: []string{"spammer"},
		Prefs: allOn(),
	})

	h.engine.pass()

	stats := h.engine.Stats()
	assert.Equal(t, 1, stats.Scans)
	assert.Equal(t, 1, stats.Counter)
	assert.Equal(t, 1, stats.Hidden)
	assert.Equal(t, h.clock.CurrentTime, stats.LastScan)

	// The snapshot map is a copy.
	stats.ByCategory[domain.CategoryUser] = 99
	assert.Equal(t, 1, h.engine.Stats().ByCategory[domain.CategoryUser])
}
