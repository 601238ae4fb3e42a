package page

import (
	"os"
	"sync"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// Source is the engine's view of the observed page. It re-parses the
// snapshot file on demand and layers its own hidden overlay on top of the
// markup's display state, so hiding survives re-parses of a page that keeps
// mutating. The overlay resets when the location changes identity.
type Source struct {
	path string
	sel  Selectors

	mu       sync.RWMutex
	location string
	things   []domain.Thing
	known    map[string]struct{}
	hidden   map[string]struct{}
}

// NewSource creates a Source over the snapshot file at path.
func NewSource(path string, sel Selectors) *Source {
	return &Source{
		path:   path,
		sel:    sel,
		known:  make(map[string]struct{}),
		hidden: make(map[string]struct{}),
	}
}

// Path returns the observed snapshot file path.
func (s *Source) Path() string { return s.path }

// Refresh re-reads the snapshot and diffs it against the previous state.
// It returns a navigation event when the location changed identity, a
// mutation event when new elements appeared at the same location, or ok
// false when nothing notable changed. Navigation resets the hidden overlay.
func (s *Source) Refresh() (domain.PageEvent, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return domain.PageEvent{}, false, err
	}
	defer f.Close()

	p, err := parsePage(f, s.sel)
	if err != nil {
		return domain.PageEvent{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.location != "" && p.location != s.location {
		s.location = p.location
		s.things = p.things
		s.known = fullnameSet(p.things)
		s.hidden = make(map[string]struct{})
		return domain.PageEvent{
			Kind:     domain.PageNavigation,
			Location: p.location,
		}, true, nil
	}

	added := 0
	for _, t := range p.things {
		if _, ok := s.known[t.Fullname]; !ok {
			s.known[t.Fullname] = struct{}{}
			added++
		}
	}
	s.things = p.things

	if added == 0 {
		return domain.PageEvent{}, false, nil
	}
	return domain.PageEvent{
		Kind:     domain.PageMutation,
		Added:    added,
		Location: s.location,
	}, true, nil
}

// Location returns the current page location.
func (s *Source) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// Things returns the current content elements in document order, with the
// hidden overlay applied to their visibility.
func (s *Source) Things() []domain.Thing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Thing, len(s.things))
	for i, t := range s.things {
		if _, ok := s.hidden[t.Fullname]; ok {
			t.Visible = false
		}
		out[i] = t
	}
	return out
}

// Hide marks the element hidden. It reports whether the call changed
// anything; hiding an already-hidden element is a no-op.
func (s *Source) Hide(fullname string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hidden[fullname]; ok {
		return false
	}
	s.hidden[fullname] = struct{}{}
	return true
}

func fullnameSet(things []domain.Thing) map[string]struct{} {
	set := make(map[string]struct{}, len(things))
	for _, t := range things {
		set[t.Fullname] = struct{}{}
	}
	return set
}
