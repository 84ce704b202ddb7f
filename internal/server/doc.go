// Package server exposes the admin HTTP API: the query registry
// (read and replace), a masked read-only view of the leak entries, a
// manual run trigger, the health probe, and the Prometheus scrape
// endpoint. The API is meant for a trusted operator network and carries
// no authentication of its own.
package server
