package model

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during link normalization.
// These are added by ad platforms and mail campaigns and change between
// search runs even when the underlying page is the same.
var trackingParams = map[string]bool{
	"gclid":       true,
	"fbclid":      true,
	"yclid":       true,
	"msclkid":     true,
	"igshid":      true,
	"mc_cid":      true,
	"mc_eid":      true,
	"ref":         true,
	"ref_src":     true,
	"_hsenc":      true,
	"_hsmi":       true,
	"vero_conv":   true,
	"vero_id":     true,
	"wickedid":    true,
	"oly_anon_id": true,
	"oly_enc_id":  true,
}

// RawResult is one record returned by the search provider for a query.
// Results are not unique by object identity: the provider may return the
// same page twice with different snippets. Identity for diffing purposes
// is the normalized link (see Identity).
type RawResult struct {
	// Link is the addressable target of the result.
	Link string `json:"link"`

	// Title is the result title as reported by the provider.
	// Volatile between runs; never part of the identity.
	Title string `json:"title,omitempty"`

	// Snippet is the context excerpt around the match.
	// Volatile between runs; never part of the identity.
	Snippet string `json:"snippet,omitempty"`

	// Source names where the exposure was found (breach name, index, site).
	Source string `json:"source,omitempty"`

	// Extra holds additional provider-specific string fields, such as
	// breach dates or field inventories. Keys vary by provider.
	Extra map[string]string `json:"extra,omitempty"`
}

// Identity returns the derived identity of the result: its normalized link.
// Two results with equal normalized links are the same exposure regardless
// of title, snippet, or source differences.
func (r RawResult) Identity() string {
	return NormalizeLink(r.Link)
}

// NormalizeLink canonicalizes a result link for identity comparison:
//   - scheme and host are lower-cased
//   - tracking query parameters (utm_*, gclid, fbclid, ...) are stripped
//   - remaining query parameters are re-encoded in sorted order
//   - the URL fragment is dropped
//   - a trailing slash on the path is stripped
//
// Unparseable links fall back to lower-cased, trimmed string comparison so
// that a malformed link from the provider still has a stable identity.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(link, "/"))
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	if u.RawQuery != "" {
		u.RawQuery = normalizeQueryParams(u.RawQuery)
	}

	return u.String()
}

// normalizeQueryParams strips tracking parameters and re-encodes the rest
// in sorted key order so parameter ordering never affects identity.
func normalizeQueryParams(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	for key := range values {
		lower := strings.ToLower(key)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}

	// url.Values.Encode sorts by key, which gives us the stable ordering.
	return values.Encode()
}

// SortedIdentities returns the identities of the given results,
// deduplicated and sorted. Useful for deterministic logging and tests.
func SortedIdentities(results []RawResult) []string {
	seen := make(map[string]bool, len(results))
	identities := make([]string, 0, len(results))
	for _, r := range results {
		id := r.Identity()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		identities = append(identities, id)
	}
	sort.Strings(identities)
	return identities
}
