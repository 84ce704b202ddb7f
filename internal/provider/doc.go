// Package provider implements the search provider client: it turns one
// tracked query into the raw result list the diff engine consumes.
//
// The client owns everything about talking to the provider: request
// construction, pagination, client-side rate limiting, and bounded retry
// with backoff on HTTP 429. The core never retries a provider call; a
// failed query simply produces no usable snapshot for that pass, and the
// failure class is reported through the package's sentinel errors.
package provider
