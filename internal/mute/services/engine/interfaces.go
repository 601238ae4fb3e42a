package engine

import "github.com/haukened/rr-mute/internal/mute/domain"

// Page is the engine's view of the observed page: the current location, the
// content elements on it, and the ability to hide one of them.
type Page interface {
	// Location returns the page's current URL.
	Location() string

	// Things returns the content elements in document order, visibility
	// already resolved. The engine never retains the slice across scans.
	Things() []domain.Thing

	// Hide marks an element hidden and reports whether the call changed
	// anything. Hiding an already-hidden element is a no-op.
	Hide(fullname string) bool
}

// PageFeed delivers page change events. The channel closes when the feed
// shuts down.
type PageFeed interface {
	Events() <-chan domain.PageEvent
}

// Rules is the engine's view of the rule store.
type Rules interface {
	Reload(domain.Record)
	Decide(domain.Thing) domain.Decision
	ContainsUser(author string) bool
	Keywords() []string
	Subreddits() []string
	Prefs() domain.Preferences
}

// RecordSource loads the persisted filter record.
type RecordSource interface {
	Load() (domain.Record, error)
}

// Badge receives hidden-item count reports. Reporting is best-effort and
// never returns an error.
type Badge interface {
	Report(count int)
}
