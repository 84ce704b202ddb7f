package config

import "errors"

// Configuration validation errors. These are returned by Config.Validate()
// and the query registry loader so callers can use errors.Is() for
// programmatic handling while still getting a human-readable message.
var (
	// ErrMissingBaseURL is returned when the provider endpoint is empty.
	ErrMissingBaseURL = errors.New("missing provider base URL: set provider.base_url")

	// ErrMissingAPIKey is returned when no API key is configured.
	// The key can come from the config file or the LEAKWATCH_API_KEY
	// environment variable.
	ErrMissingAPIKey = errors.New("missing provider API key: set provider.api_key or LEAKWATCH_API_KEY")

	// ErrInvalidInterval is returned when the schedule interval is not positive.
	ErrInvalidInterval = errors.New("invalid schedule interval: must be positive")

	// ErrInvalidConcurrency is returned when the run concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrMissingDatabaseDir is returned when no database directory is configured.
	ErrMissingDatabaseDir = errors.New("missing database directory: set database.dir")

	// ErrNoQueries is returned when the query registry file holds no queries.
	ErrNoQueries = errors.New("no queries configured: add at least one entry to the queries file")

	// ErrDuplicateQuery is returned when two registry entries normalize to
	// the same query key.
	ErrDuplicateQuery = errors.New("duplicate query: entries normalize to the same key")
)
