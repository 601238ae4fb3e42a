// Package rules holds the in-memory rule store and matcher. The store keeps
// one immutable snapshot of the four normalized rule sets plus preferences;
// Reload swaps the whole snapshot atomically so a scan in progress keeps
// reading the generation it started with.
package rules

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-mute/internal/mute/common/utils"
	"github.com/haukened/rr-mute/internal/mute/domain"
)

const (
	// DefaultHostCacheSize bounds the memoized link-domain extractions.
	DefaultHostCacheSize = 1024
	// DefaultBloomFPRate is the target false-positive rate for the keyword
	// trigram filter.
	DefaultBloomFPRate = 0.01
)

// Counts reports the per-category rule set sizes of the current snapshot.
type Counts struct {
	Users      int
	Keywords   int
	Subreddits int
	Domains    int
}

// snapshot is one immutable generation of compiled rules. It is never
// mutated after construction; Reload replaces the pointer under lock.
type snapshot struct {
	users      map[string]struct{}
	keywords   *keywordIndex
	subreddits map[string]struct{}
	subList    []string
	domains    map[string]struct{}
	prefs      domain.Preferences
}

// Store is the matcher's view of the active rules. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	snap   *snapshot
	hosts  *lru.Cache[string, string]
	fpRate float64
}

// New constructs an empty Store. hostCacheSize bounds the memoized bare-host
// extraction cache (values <= 0 select DefaultHostCacheSize); fpRate is the
// keyword filter's target false-positive rate (values outside (0,1) select
// DefaultBloomFPRate).
func New(hostCacheSize int, fpRate float64) (*Store, error) {
	if hostCacheSize <= 0 {
		hostCacheSize = DefaultHostCacheSize
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = DefaultBloomFPRate
	}
	hosts, err := lru.New[string, string](hostCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Store{hosts: hosts, fpRate: fpRate}
	s.snap = buildSnapshot(domain.EmptyRecord(), fpRate)
	return s, nil
}

// Reload compiles a storage record into a fresh snapshot and swaps it in.
// Entries are normalized per category and deduplicated preserving first-seen
// order. Preference fallbacks are the persistence gateway's concern; the
// record arrives already resolved.
func (s *Store) Reload(rec domain.Record) {
	snap := buildSnapshot(rec, s.fpRate)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Decide evaluates one content element against the current snapshot.
// Priority is fixed: subreddit, then keyword, then user, then domain; the
// first matching category wins and the rest are not evaluated. Disabled
// categories are skipped. Subreddit, keyword and domain rules never apply
// to comments; domain rules require a non-empty domain attribute.
func (s *Store) Decide(t domain.Thing) domain.Decision {
	snap := s.snapshot()

	if t.IsPost() && snap.prefs.FilterSubreddits {
		if sub := strings.ToLower(t.Subreddit); sub != "" {
			if _, ok := snap.subreddits[sub]; ok {
				return domain.Decision{Hidden: true, Category: domain.CategorySubreddit, Rule: sub}
			}
		}
	}

	if t.IsPost() && snap.prefs.FilterKeywords {
		if kw, ok := snap.keywords.FirstMatch(strings.ToLower(t.Title)); ok {
			return domain.Decision{Hidden: true, Category: domain.CategoryKeyword, Rule: kw}
		}
	}

	if snap.prefs.FilterUsers && t.Author != "" {
		if _, ok := snap.users[t.Author]; ok {
			return domain.Decision{Hidden: true, Category: domain.CategoryUser, Rule: t.Author}
		}
	}

	if t.IsPost() && snap.prefs.FilterDomains && t.Domain != "" {
		if host := s.bareHost(t.Domain); host != "" {
			if _, ok := snap.domains[host]; ok {
				return domain.Decision{Hidden: true, Category: domain.CategoryDomain, Rule: host}
			}
		}
	}

	return domain.EmptyDecision()
}

// ContainsUser reports whether the author is present in the user rule set.
// Comparison is exact; authors are stored with their case preserved.
func (s *Store) ContainsUser(author string) bool {
	snap := s.snapshot()
	_, ok := snap.users[author]
	return ok
}

// Keywords returns the normalized keyword rules in order.
func (s *Store) Keywords() []string {
	snap := s.snapshot()
	return append([]string(nil), snap.keywords.keywords...)
}

// Subreddits returns the normalized subreddit rules in order.
func (s *Store) Subreddits() []string {
	snap := s.snapshot()
	return append([]string(nil), snap.subList...)
}

// Prefs returns the preferences of the current snapshot.
func (s *Store) Prefs() domain.Preferences {
	return s.snapshot().prefs
}

// Counts returns the rule set sizes of the current snapshot.
func (s *Store) Counts() Counts {
	snap := s.snapshot()
	return Counts{
		Users:      len(snap.users),
		Keywords:   snap.keywords.Len(),
		Subreddits: len(snap.subreddits),
		Domains:    len(snap.domains),
	}
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	return snap
}

// bareHost memoizes domain.Thing link-domain extraction. Raw attribute
// values repeat heavily across a listing page, so the cache turns repeated
// parsing into a map hit.
func (s *Store) bareHost(raw string) string {
	if host, ok := s.hosts.Get(raw); ok {
		return host
	}
	host := utils.BareHost(raw)
	s.hosts.Add(raw, host)
	return host
}

func buildSnapshot(rec domain.Record, fpRate float64) *snapshot {
	users := dedup(domain.CategoryUser.NormalizeEntries(rec.Users))
	keywords := dedup(domain.CategoryKeyword.NormalizeEntries(rec.Keywords))
	subreddits := dedup(domain.CategorySubreddit.NormalizeEntries(rec.Subreddits))
	domains := dedup(domain.CategoryDomain.NormalizeEntries(rec.Domains))

	return &snapshot{
		users:      toSet(users),
		keywords:   newKeywordIndex(keywords, fpRate),
		subreddits: toSet(subreddits),
		subList:    subreddits,
		domains:    toSet(domains),
		prefs:      rec.Prefs,
	}
}

// dedup removes repeated entries preserving first-seen order.
func dedup(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e] = struct{}{}
	}
	return set
}
