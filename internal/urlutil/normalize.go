// Package urlutil canonicalizes target URLs so that cosmetically different
// URLs pointing at the same resource collapse to one monitored target.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are query parameters that never change the addressed
// resource and are stripped during normalization.
var trackingParams = map[string]bool{
	"gclid":    true,
	"fbclid":   true,
	"msclkid":  true,
	"mc_cid":   true,
	"mc_eid":   true,
	"ref":      true,
	"referrer": true,
	"igshid":   true,
}

// Normalize returns the canonical form of a URL: lowercased scheme and host,
// no fragment, no tracking query parameters, no trailing slash. Normalizing
// an already-normalized URL is a no-op.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL has no host: %s", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	// Encode sorts keys, which keeps normalization idempotent.
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// Slug extracts the last path segment of a URL for CMS lookups.
func Slug(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}

// SameHost reports whether two URLs share a host.
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}
