package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode identifies which scan applies to the current page, derived from the
// URL path shape. Exactly one mode runs per scan invocation.
type Mode uint8

const (
	// ModeListing scans feed submissions with full category matching.
	ModeListing Mode = iota
	// ModeThread scans thread replies with author-only matching.
	ModeThread
)

// String returns a stable string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeListing:
		return "listing"
	case ModeThread:
		return "thread"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// ModeFromPath derives the scan mode from a page location. Thread detail
// pages carry a "/comments/" path segment; everything else is a listing.
// Accepts full URLs or bare paths.
func ModeFromPath(location string) Mode {
	path := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		path = u.Path
	}
	if strings.Contains(path, "/comments/") {
		return ModeThread
	}
	return ModeListing
}

// PageEventKind classifies a page change notification.
type PageEventKind uint8

const (
	// PageMutation signals incremental content change on the same page.
	PageMutation PageEventKind = iota
	// PageNavigation signals that the page location changed identity.
	PageNavigation
)

// String returns a stable string representation of the event kind.
func (k PageEventKind) String() string {
	switch k {
	case PageMutation:
		return "mutation"
	case PageNavigation:
		return "navigation"
	default:
		return fmt.Sprintf("PageEventKind(%d)", k)
	}
}

// PageEvent is one change notification from the observed page.
//
// Mutation events carry the number of newly added elements; only batches
// with at least one addition schedule a rescan. Navigation events carry the
// new location and reset the hidden counter.
type PageEvent struct {
	Kind     PageEventKind
	Added    int
	Location string
}
