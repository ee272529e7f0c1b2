package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL, producing a canonical form.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Query parameters are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// Origin returns the canonical "scheme://host" of rawURL. It is the key the
// rate limiter tracks fetch timing under.
func Origin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", rawURL)
	}
	canonical := Canonicalize(*parsed)
	return canonical.Scheme + "://" + canonical.Host, nil
}

// Absolutize prefixes base to a site-relative href. The result keeps the
// href's exact spelling, since it doubles as a cache key. Hrefs that are
// already absolute are returned unchanged.
func Absolutize(base string, href string) string {
	href = strings.TrimSpace(href)
	if parsed, err := url.Parse(href); err == nil && parsed.IsAbs() {
		return href
	}
	if strings.HasPrefix(href, "//") {
		if parsed, err := url.Parse(base); err == nil && parsed.Scheme != "" {
			return parsed.Scheme + ":" + href
		}
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// lowerASCII converts ASCII characters to lowercase without allocating
// when the input is already lowercase.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
