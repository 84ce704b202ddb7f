// Package model defines the core data types shared across leakwatch:
// tracked queries, raw search results and their derived identities,
// per-query snapshots, and the durable leak entries that make up the
// leak registry. All types in this package are plain values with no I/O.
package model
