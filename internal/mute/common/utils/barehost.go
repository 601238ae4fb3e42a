package utils

import "strings"

// BareHost reduces a raw domain entry or URL to its bare host form:
// - Lowercased and trimmed of surrounding whitespace
// - Scheme removed ("https://example.com" -> "example.com")
// - Path, query and fragment removed
// - One leading "www." removed
// - No trailing dots because they don't add any runtime benefit, only legacy baggage.
//
// Not url.Parse: schemeless entries like "example.com/path" parse as
// opaque paths.
func BareHost(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	return host
}
