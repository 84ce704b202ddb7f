package model

import (
	"errors"
	"strings"
)

// Query errors.
var (
	// ErrEmptyQueryValue is returned when the query value is empty after trimming.
	ErrEmptyQueryValue = errors.New("query value cannot be empty")
	// ErrInvalidQueryType is returned when the query type is not recognized.
	ErrInvalidQueryType = errors.New("invalid query type")
)

// QueryType classifies what a tracked query value represents.
// The type is sent to the search provider so it can route the lookup,
// and it is part of the query's identity.
type QueryType string

const (
	// QueryTypeDomain tracks exposures mentioning a domain name.
	QueryTypeDomain QueryType = "domain"
	// QueryTypeKeyword tracks exposures mentioning a free-form keyword.
	QueryTypeKeyword QueryType = "keyword"
	// QueryTypeEmail tracks exposures of a specific email address.
	QueryTypeEmail QueryType = "email"
	// QueryTypeAuto lets the search provider detect the value type itself.
	QueryTypeAuto QueryType = "auto"
)

// String returns the string representation of the QueryType.
func (t QueryType) String() string {
	return string(t)
}

// IsValid reports whether the QueryType is one of the known types.
func (t QueryType) IsValid() bool {
	switch t {
	case QueryTypeDomain, QueryTypeKeyword, QueryTypeEmail, QueryTypeAuto:
		return true
	default:
		return false
	}
}

// ParseQueryType parses a string into a QueryType.
// An empty string defaults to QueryTypeAuto, matching the behavior of the
// query configuration file where the type field is optional.
func ParseQueryType(s string) (QueryType, error) {
	t := QueryType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return QueryTypeAuto, nil
	}
	if !t.IsValid() {
		return "", ErrInvalidQueryType
	}
	return t, nil
}

// Query is one tracked entity submitted to the search provider.
// It is immutable once submitted to a run: the orchestrator copies the
// query list at the start of a pass and never mutates it afterwards.
type Query struct {
	// Value is the tracked entity as configured by the operator,
	// e.g. "acme.com" or "jdoe@acme.com".
	Value string `yaml:"q" json:"q"`

	// Type classifies the value. Defaults to QueryTypeAuto when omitted.
	Type QueryType `yaml:"type,omitempty" json:"type"`
}

// NewQuery creates a validated Query.
// The value is trimmed but otherwise kept as the operator wrote it;
// identity normalization happens in NormalizedValue and Key.
func NewQuery(value string, queryType QueryType) (Query, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Query{}, ErrEmptyQueryValue
	}
	if queryType == "" {
		queryType = QueryTypeAuto
	}
	if !queryType.IsValid() {
		return Query{}, ErrInvalidQueryType
	}
	return Query{Value: value, Type: queryType}, nil
}

// NormalizedValue returns the query value lower-cased and trimmed.
// Two queries with the same normalized value and type are the same
// tracked entity regardless of how the operator spelled them.
func (q Query) NormalizedValue() string {
	return strings.ToLower(strings.TrimSpace(q.Value))
}

// NormalizedType returns the query type with the empty value folded into
// QueryTypeAuto.
func (q Query) NormalizedType() QueryType {
	if q.Type == "" {
		return QueryTypeAuto
	}
	return q.Type
}

// Key returns the stable identity of the query used to key snapshots.
// The type participates in the key because the same value tracked as a
// domain and as a keyword produces different provider result sets.
func (q Query) Key() string {
	return string(q.NormalizedType()) + ":" + q.NormalizedValue()
}

// Validate checks that the query has a non-empty value and a known type.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Value) == "" {
		return ErrEmptyQueryValue
	}
	if q.Type != "" && !q.Type.IsValid() {
		return ErrInvalidQueryType
	}
	return nil
}
