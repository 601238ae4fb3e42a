package engine

import (
	"errors"
	"strings"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// Cleanup query errors.
var (
	// ErrNotThreadPage indicates an author collection was requested while the
	// page is not a thread view.
	ErrNotThreadPage = errors.New("author cleanup requires a thread page")
)

// CleanupUsers returns the authors on the current thread page that have no
// user rule yet, in first-appearance order with original casing preserved.
// Hidden elements are included so already-filtered authors still surface.
// Returns ErrNotThreadPage on listing pages.
func (e *Engine) CleanupUsers() ([]string, error) {
	if domain.ModeFromPath(e.page.Location()) != domain.ModeThread {
		return nil, ErrNotThreadPage
	}

	seen := make(map[string]struct{})
	var authors []string
	for _, t := range e.page.Things() {
		if t.Author == "" {
			continue
		}
		if _, dup := seen[t.Author]; dup {
			continue
		}
		seen[t.Author] = struct{}{}
		if e.rules.ContainsUser(t.Author) {
			continue
		}
		authors = append(authors, t.Author)
	}
	return authors, nil
}

// CleanupKeywords returns the keyword rules that match at least one post
// title on the current page, hidden posts included. Rules keep their stored
// order. Empty when keyword filtering is disabled.
func (e *Engine) CleanupKeywords() []string {
	if !e.rules.Prefs().FilterKeywords {
		return nil
	}

	var titles []string
	for _, t := range e.page.Things() {
		if !t.IsPost() || t.Title == "" {
			continue
		}
		titles = append(titles, strings.ToLower(t.Title))
	}

	var matched []string
	for _, kw := range e.rules.Keywords() {
		for _, title := range titles {
			if strings.Contains(title, kw) {
				matched = append(matched, kw)
				break
			}
		}
	}
	return matched
}

// CleanupSubreddits returns the community rules that have at least one post
// from that community on the current page, hidden posts included. Rules keep
// their stored order. Empty when community filtering is disabled.
func (e *Engine) CleanupSubreddits() []string {
	if !e.rules.Prefs().FilterSubreddits {
		return nil
	}

	present := make(map[string]struct{})
	for _, t := range e.page.Things() {
		if !t.IsPost() || t.Subreddit == "" {
			continue
		}
		present[strings.ToLower(t.Subreddit)] = struct{}{}
	}

	var matched []string
	for _, sub := range e.rules.Subreddits() {
		if _, ok := present[sub]; ok {
			matched = append(matched, sub)
		}
	}
	return matched
}
