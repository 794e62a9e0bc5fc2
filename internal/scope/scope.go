// Package scope decides which discovered links belong to a crawl.
//
// A crawl is bound to the origin (scheme + host) of its seed URL. Links are
// resolved against the page they were found on and kept only when the
// resolved URL text starts with that origin.
//
// Design decision: The in-scope test is a textual prefix match, not host
// equality. This reproduces the behavior existing mirrors were produced with,
// but it is looser than it looks: for the origin "https://example.com" the
// URL "https://example.com.evil.org/" is also in scope. Tighten it only with
// a deliberate behavior change.
package scope

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a seed URL has no scheme or host.
var ErrInvalidURL = errors.New("invalid URL")

// Origin is the scheme and host of a crawl's seed URL.
// It is fixed for the lifetime of one crawl.
type Origin struct {
	// Scheme is the seed's scheme as written (e.g. "https").
	Scheme string

	// Host is the seed's host including any port (e.g. "docs.example.com:8080").
	Host string
}

// String returns the origin as "scheme://host".
func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// ComputeBaseOrigin extracts the origin from a seed URL.
// It fails with ErrInvalidURL if the seed cannot be parsed into a scheme
// and a host.
func ComputeBaseOrigin(seed string) (Origin, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return Origin{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, seed, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Origin{}, fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, seed)
	}
	return Origin{Scheme: u.Scheme, Host: u.Host}, nil
}

// ResolveLink resolves an href found on pageURL.
//
// It returns false for hrefs that cannot lead to a crawlable page:
// empty and fragment-only hrefs, unparseable hrefs, and anything that does
// not resolve to http or https (mailto:, javascript:, tel:, data:, ...).
func ResolveLink(pageURL *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := pageURL.ResolveReference(ref)
	switch strings.ToLower(resolved.Scheme) {
	case "http", "https":
		return resolved.String(), true
	default:
		return "", false
	}
}

// IsInScope reports whether resolved starts with the origin's text.
// See the package documentation for why this is a prefix match.
func IsInScope(resolved string, origin Origin) bool {
	return strings.HasPrefix(resolved, origin.String())
}

// StripFragment returns raw without its "#fragment" part. Everything else,
// including the case of the host, is kept as written. Unparseable input is
// returned unchanged.
func StripFragment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Normalize returns the key a URL is deduplicated under.
//
// The fragment is dropped, scheme and host are lower-cased, and an empty
// path becomes "/", so "https://Docs.example.com#top" and
// "https://docs.example.com/" are the same page. Unparseable input is
// returned unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}

	return u.String()
}
