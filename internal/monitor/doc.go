// Package monitor orchestrates one monitoring run: it fans out over the
// configured queries, fetches current results from the search provider,
// diffs them against the stored snapshot, applies the diff to the leak
// registry, and delivers one aggregated notification batch.
//
// A failing query never aborts the run. Each query unit is isolated and
// its failure is recorded in the run report with a classified error kind,
// so operators can tell a provider outage from a storage fault.
package monitor
