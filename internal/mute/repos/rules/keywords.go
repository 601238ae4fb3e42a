package rules

import (
	"math"
	"strings"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// trigramLen is the substring window indexed by the keyword Bloom filter.
const trigramLen = 3

// keywordIndex answers "does any keyword occur in this title" with an
// in-order first-match scan, fronted by a trigram Bloom filter for the
// common no-match case. The filter holds the leading trigram of every
// keyword of at least trigramLen bytes; if a keyword occurs in a title,
// its leading trigram is one of the title's windows, so a title whose
// windows all test negative cannot contain any indexed keyword.
// Keywords shorter than trigramLen disable the early-allow path entirely.
type keywordIndex struct {
	keywords []string // normalized, ordered, deduplicated
	bloom    *bitsbloom.BloomFilter
	short    bool // any keyword shorter than trigramLen
}

// newKeywordIndex builds an index over normalized keywords. fpRate is the
// target false-positive rate for the trigram filter; false positives only
// cost a linear scan, never a wrong answer.
func newKeywordIndex(keywords []string, fpRate float64) *keywordIndex {
	ix := &keywordIndex{keywords: keywords}
	var n uint64
	for _, kw := range keywords {
		if len(kw) < trigramLen {
			ix.short = true
		} else {
			n++
		}
	}
	if n > 0 {
		m, k := sizeFilter(n, fpRate)
		ix.bloom = bitsbloom.New(uint(m), uint(k))
		for _, kw := range keywords {
			if len(kw) >= trigramLen {
				ix.bloom.Add([]byte(kw[:trigramLen]))
			}
		}
	}
	return ix
}

// FirstMatch returns the first keyword contained in the lowercased title,
// in rule order.
func (ix *keywordIndex) FirstMatch(title string) (string, bool) {
	if len(ix.keywords) == 0 {
		return "", false
	}
	if !ix.short && !ix.mightMatch(title) {
		return "", false
	}
	for _, kw := range ix.keywords {
		if strings.Contains(title, kw) {
			return kw, true
		}
	}
	return "", false
}

// Len returns the number of indexed keywords.
func (ix *keywordIndex) Len() int { return len(ix.keywords) }

// mightMatch slides a trigram window over the title and tests each against
// the filter. A negative result is definitive: no indexed keyword occurs.
func (ix *keywordIndex) mightMatch(title string) bool {
	if ix.bloom == nil {
		return false
	}
	for i := 0; i+trigramLen <= len(title); i++ {
		if ix.bloom.Test([]byte(title[i : i+trigramLen])) {
			return true
		}
	}
	return false
}

// sizeFilter computes Bloom parameters using the standard formulas:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Results are clamped to at least 1; invalid p defaults to 1%.
func sizeFilter(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint8(math.Max(1, math.Round((float64(m)/float64(n))*ln2)))
	return m, k
}
