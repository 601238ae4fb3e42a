package domain

import "fmt"

// ThingKind distinguishes the two content element shapes on the site.
//
// post    - a submission in a feed/listing view (author, title, subreddit, domain)
// comment - a threaded reply (author only)
type ThingKind uint8

const (
	// KindPost is a listing submission.
	KindPost ThingKind = iota
	// KindComment is a thread reply.
	KindComment
)

// String returns a stable string representation of the thing kind.
func (k ThingKind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	default:
		return fmt.Sprintf("ThingKind(%d)", k)
	}
}

// Thing is a read-only view over one content element of the page.
//
// Notes:
//   - Fullname is the site identity of the element (e.g. "t3_abc123") and is
//     the key for hide/visibility tracking across rescans.
//   - Visible reflects the computed display state at snapshot time; the
//     scanner only ever evaluates visible things.
//   - Title, Subreddit and Domain are populated for posts only; comments
//     carry just the author.
//   - The engine never retains Thing values across scans; each scan
//     re-queries the page.
type Thing struct {
	Fullname  string
	Kind      ThingKind
	Visible   bool
	Author    string
	Title     string
	Subreddit string
	Domain    string
}

// IsPost returns true when the thing is a listing submission.
func (t Thing) IsPost() bool { return t.Kind == KindPost }

// IsComment returns true when the thing is a thread reply.
func (t Thing) IsComment() bool { return t.Kind == KindComment }
