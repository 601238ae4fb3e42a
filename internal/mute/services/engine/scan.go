package engine

import "github.com/haukened/rr-mute/internal/mute/domain"

// scan evaluates the page's visible elements against the rules and hides
// matches. Listing pages evaluate submissions; thread pages evaluate replies.
// Returns the number of elements hidden by this scan. Cost is linear in the
// number of visible elements; already-hidden elements are skipped outright.
func (e *Engine) scan() int {
	mode := domain.ModeFromPath(e.page.Location())
	prefs := e.rules.Prefs()

	hidden := 0
	for _, t := range e.page.Things() {
		if !t.Visible {
			continue
		}
		if mode == domain.ModeThread {
			if !t.IsComment() {
				continue
			}
		} else if !t.IsPost() {
			continue
		}

		d := e.rules.Decide(t)
		if !d.Hidden {
			continue
		}
		if !e.page.Hide(t.Fullname) {
			// No visibility transition, nothing to count.
			continue
		}
		hidden++
		e.noteHidden(d.Category)

		if prefs.LoggingEnabled {
			e.logger.Info(map[string]any{
				"fullname": t.Fullname,
				"kind":     t.Kind.String(),
				"category": d.Category.String(),
				"rule":     d.Rule,
			}, "content hidden")
		}
	}

	e.noteScan()
	return hidden
}
