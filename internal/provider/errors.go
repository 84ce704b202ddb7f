package provider

import "errors"

// Provider failure classes. The orchestrator maps these onto the per-query
// error kinds of the run report with errors.Is; everything else the client
// returns is either a context error or a programmer mistake.
var (
	// ErrUnavailable is returned when the provider cannot be reached or
	// answers with a server-side error status.
	ErrUnavailable = errors.New("search provider unavailable")

	// ErrRateLimited is returned when the provider keeps answering 429
	// after the bounded retry budget is exhausted.
	ErrRateLimited = errors.New("search provider rate limited")

	// ErrMalformedResponse is returned when the provider answers with a
	// body that cannot be decoded into the expected result shape.
	ErrMalformedResponse = errors.New("malformed search provider response")

	// ErrEmptyQuery is returned when the query value is empty after
	// provider-side sanitization, e.g. a domain query consisting only of
	// characters the provider rejects.
	ErrEmptyQuery = errors.New("query is empty after sanitization")
)
