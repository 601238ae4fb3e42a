// Package domain contains the value types, normalization rules and page
// abstractions for the rr-mute filtering engine. Everything here is pure:
// no I/O, no logging, no external state.
package domain

import (
	"strings"

	"github.com/haukened/rr-mute/internal/mute/common/utils"
)

// SplitLines splits raw line-delimited settings text into trimmed entries,
// dropping empty and whitespace-only lines. Duplicates are preserved;
// de-duplication is the caller's concern when persisting.
func SplitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Normalize cleans one raw entry into its canonical matching token for the
// category. Any input normalizes to something, possibly the empty string
// (which callers drop). Idempotent: normalizing a normalized entry returns
// it unchanged.
//
// Per category:
//   - user: trimmed, case preserved, one leading "u/" removed
//   - keyword: trimmed and lowercased
//   - subreddit: trimmed, lowercased, one leading "r/" removed
//   - domain: trimmed, lowercased, reduced to its bare host
func (c Category) Normalize(entry string) string {
	entry = strings.TrimSpace(entry)
	switch c {
	case CategoryUser:
		// Authors match case-sensitively by site convention, so only the
		// prefix check ignores case.
		if len(entry) >= 2 && strings.EqualFold(entry[:2], "u/") {
			entry = entry[2:]
		}
		return entry
	case CategoryKeyword:
		return strings.ToLower(entry)
	case CategorySubreddit:
		entry = strings.ToLower(entry)
		return strings.TrimPrefix(entry, "r/")
	case CategoryDomain:
		return utils.BareHost(entry)
	default:
		return entry
	}
}

// NormalizeList splits raw line-delimited text and normalizes every entry
// for the category, dropping entries that normalize to empty. Order is
// preserved and duplicates are permitted.
func (c Category) NormalizeList(raw string) []string {
	lines := SplitLines(raw)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if n := c.Normalize(line); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeEntries normalizes an already-split sequence of entries for the
// category, dropping entries that normalize to empty. This is the reload
// path for lists coming out of storage.
func (c Category) NormalizeEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if n := c.Normalize(entry); n != "" {
			out = append(out, n)
		}
	}
	return out
}
