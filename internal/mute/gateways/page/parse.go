package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// parsedPage is one decoded snapshot: the page location and every content
// element found, in document order. Thing.Visible reflects only the
// element's own styling here; the source overlays its hidden state on top.
type parsedPage struct {
	location string
	things   []domain.Thing
}

// parsePage decodes an HTML snapshot into content elements using the
// selector profile. Elements without an identity attribute are skipped.
// Nested things (thread replies under their parents) are all collected.
func parsePage(r io.Reader, sel Selectors) (parsedPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return parsedPage{}, err
	}

	var p parsedPage
	var canonical, ogURL string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if attrVal(n, "rel") == "canonical" {
					canonical = attrVal(n, "href")
				}
			case "meta":
				if attrVal(n, "property") == "og:url" {
					ogURL = attrVal(n, "content")
				}
			default:
				if hasClass(n, sel.ThingClass) {
					if t, ok := parseThing(n, sel); ok {
						p.things = append(p.things, t)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.location = canonical
	if p.location == "" {
		p.location = ogURL
	}
	return p, nil
}

// parseThing extracts one content element. The element kind comes from its
// class list; elements that are neither posts nor comments are ignored.
func parseThing(n *html.Node, sel Selectors) (domain.Thing, bool) {
	fullname := attrVal(n, sel.FullnameAttr)
	if fullname == "" {
		return domain.Thing{}, false
	}

	t := domain.Thing{
		Fullname: fullname,
		Visible:  !styleHidden(attrVal(n, "style")),
		Author:   attrVal(n, sel.AuthorAttr),
	}

	switch {
	case hasClass(n, sel.CommentClass):
		t.Kind = domain.KindComment
	case hasClass(n, sel.PostClass):
		t.Kind = domain.KindPost
		t.Subreddit = attrVal(n, sel.SubredditAttr)
		t.Domain = attrVal(n, sel.DomainAttr)
		t.Title = titleText(n, sel)
	default:
		return domain.Thing{}, false
	}
	return t, true
}

// titleText finds the post's title anchor text, without descending into
// nested things (a reply's own markup never contributes a parent's title).
func titleText(n *html.Node, sel Selectors) string {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if found != nil {
			return
		}
		if c != n && c.Type == html.ElementNode && hasClass(c, sel.ThingClass) {
			return
		}
		if c.Type == html.ElementNode && hasClass(c, sel.TitleClass) {
			found = c
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(found))
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return sb.String()
}

// attrVal returns the trimmed value of the named attribute, or "".
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// hasClass reports whether the element's class list contains the token.
func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attrVal(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// styleHidden reports whether an inline style declares display none.
func styleHidden(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(strings.ToLower(name)) == "display" &&
			strings.TrimSpace(strings.ToLower(value)) == "none" {
			return true
		}
	}
	return false
}
