package monitor

import (
	"errors"

	"github.com/nao1215/leakwatch/internal/provider"
	"github.com/nao1215/leakwatch/internal/registry"
)

// ErrRunInProgress is returned when RunOnce is called while another run
// for the same Monitor is still executing.
var ErrRunInProgress = errors.New("monitor run already in progress")

// ErrorKind classifies a per-query failure so callers can distinguish
// transient provider trouble from storage faults.
type ErrorKind string

const (
	// ErrorKindProviderUnavailable covers network failures, non-429 HTTP
	// errors, and exhausted query budgets while talking to the provider.
	ErrorKindProviderUnavailable ErrorKind = "provider_unavailable"
	// ErrorKindRateLimited means the provider kept returning 429 past the
	// retry budget.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindMalformedResponse means the provider answered with a body
	// the client could not decode.
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	// ErrorKindStoreUnavailable covers snapshot and registry storage
	// failures.
	ErrorKindStoreUnavailable ErrorKind = "store_unavailable"
	// ErrorKindConcurrentConflict means the per-entity apply lock could
	// not be acquired within its bounded wait.
	ErrorKindConcurrentConflict ErrorKind = "concurrent_conflict"
	// ErrorKindInvalidQuery means the query was rejected before any
	// provider call, e.g. it sanitized down to nothing.
	ErrorKindInvalidQuery ErrorKind = "invalid_query"
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// classifyError maps a query unit failure to its ErrorKind. Unknown
// errors from the storage path default to store_unavailable, preserving
// the rule that anything not clearly a provider fault is treated as a
// local one.
func classifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, provider.ErrRateLimited):
		return ErrorKindRateLimited
	case errors.Is(err, provider.ErrMalformedResponse):
		return ErrorKindMalformedResponse
	case errors.Is(err, provider.ErrUnavailable):
		return ErrorKindProviderUnavailable
	case errors.Is(err, provider.ErrEmptyQuery):
		return ErrorKindInvalidQuery
	case errors.Is(err, registry.ErrApplyContended):
		return ErrorKindConcurrentConflict
	default:
		return ErrorKindStoreUnavailable
	}
}
