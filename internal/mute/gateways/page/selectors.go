// Package page adapts the observed page snapshot into content element views
// and change events. The snapshot is an HTML file kept current by the
// browser side; this package parses it, tracks hidden state across
// re-parses, and surfaces mutation and navigation events.
package page

import (
	"fmt"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
)

// Selectors is the site-specific lookup table mapping content elements to
// classes and attributes. The default profile covers the old-style site
// markup; deployments can override it with a YAML profile.
type Selectors struct {
	// ThingClass marks any content element, post or comment.
	ThingClass string `koanf:"thing_class"`
	// PostClass marks listing submissions among things.
	PostClass string `koanf:"post_class"`
	// CommentClass marks thread replies among things.
	CommentClass string `koanf:"comment_class"`
	// FullnameAttr carries the element's site identity (e.g. "t3_abc").
	FullnameAttr string `koanf:"fullname_attr"`
	// AuthorAttr carries the element author's name.
	AuthorAttr string `koanf:"author_attr"`
	// SubredditAttr carries the community name (posts only).
	SubredditAttr string `koanf:"subreddit_attr"`
	// DomainAttr carries the link domain (posts only).
	DomainAttr string `koanf:"domain_attr"`
	// TitleClass marks the title anchor inside a post.
	TitleClass string `koanf:"title_class"`
}

// DefaultSelectors returns the profile for the old-style site markup.
func DefaultSelectors() Selectors {
	return Selectors{
		ThingClass:    "thing",
		PostClass:     "link",
		CommentClass:  "comment",
		FullnameAttr:  "data-fullname",
		AuthorAttr:    "data-author",
		SubredditAttr: "data-subreddit",
		DomainAttr:    "data-domain",
		TitleClass:    "title",
	}
}

// LoadSelectors reads a YAML selector profile, using the default profile
// for any field the file leaves unset.
func LoadSelectors(path string) (Selectors, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Selectors{}, fmt.Errorf("failed to load selector profile %s: %w", path, err)
	}

	sel := DefaultSelectors()
	if err := k.Unmarshal("", &sel); err != nil {
		return Selectors{}, fmt.Errorf("failed to unmarshal selector profile %s: %w", path, err)
	}
	return sel, nil
}
