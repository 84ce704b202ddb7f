package provider

import (
	"regexp"
	"strings"

	"github.com/nao1215/leakwatch/internal/model"
)

// Sanitization patterns. The provider rejects queries containing
// characters outside these sets with HTTP 400, so values are cleaned
// before they reach the wire.
var (
	schemePrefix   = regexp.MustCompile(`(?i)^https?://`)
	domainInvalid  = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)
	keywordInvalid = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// SanitizeQuery normalizes a query value for submission to the provider,
// depending on the query type:
//
//   - domain: scheme prefix and trailing slashes stripped, then reduced to
//     hostname-safe characters
//   - keyword: whitespace collapsed to underscores, then reduced to
//     word-safe characters
//   - email: passed through as written
//   - auto: whitespace collapsed to underscores only, since the provider
//     decides the type itself
//
// An empty result after sanitization means the value cannot be queried.
func SanitizeQuery(value string, queryType model.QueryType) string {
	value = strings.TrimSpace(value)

	switch queryType {
	case model.QueryTypeDomain:
		value = schemePrefix.ReplaceAllString(value, "")
		value = strings.Trim(strings.TrimSpace(value), "/")
		return domainInvalid.ReplaceAllString(value, "")
	case model.QueryTypeKeyword:
		value = whitespaceRun.ReplaceAllString(value, "_")
		return keywordInvalid.ReplaceAllString(value, "")
	case model.QueryTypeEmail:
		return value
	default:
		return whitespaceRun.ReplaceAllString(value, "_")
	}
}
