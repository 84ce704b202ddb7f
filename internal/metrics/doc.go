// Package metrics registers the Prometheus instruments exposed by the
// monitor. All instruments live on the default registry and are scraped
// through the admin server's /metrics endpoint.
package metrics
