package domain

import (
	"fmt"
	"strings"
)

// Category identifies one class of filter rule.
//
// user      - matches an author name exactly (case-sensitive, site convention)
// keyword   - matches a substring of a post title (case-insensitive)
// subreddit - matches a post's subreddit exactly (case-insensitive)
// domain    - matches a post's outbound link host exactly (case-insensitive)
type Category uint8

const (
	// CategoryUser matches content by author name.
	CategoryUser Category = iota
	// CategoryKeyword matches post titles by substring.
	CategoryKeyword
	// CategorySubreddit matches posts by their subreddit.
	CategorySubreddit
	// CategoryDomain matches posts by their outbound link host.
	CategoryDomain
)

// String returns a stable string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryKeyword:
		return "keyword"
	case CategorySubreddit:
		return "subreddit"
	case CategoryDomain:
		return "domain"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// ParseCategory converts a string into a Category.
// Accepts: "user", "keyword", "subreddit", "domain" (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return CategoryUser, nil
	case "keyword":
		return CategoryKeyword, nil
	case "subreddit":
		return CategorySubreddit, nil
	case "domain":
		return CategoryDomain, nil
	default:
		return 0, fmt.Errorf("unsupported Category: %q", s)
	}
}

// Categories returns all filter categories in matcher priority order:
// subreddit first, then keyword, then user, then domain.
func Categories() []Category {
	return []Category{CategorySubreddit, CategoryKeyword, CategoryUser, CategoryDomain}
}
