// Package database provides SQLite-based storage for leakwatch.
//
// This package implements the LeakDB, which stores:
//   - The most recent result snapshot per tracked query
//   - The durable leak entry registry with full status history
//
// Storage is a single SQLite file (via modernc.org/sqlite, CGO-free)
// opened in WAL mode with a single writer connection.
//
// The package owns persistence mechanics only. Leak lifecycle decisions
// (status transitions, notification worthiness) live in the registry
// package; snapshot write ordering is enforced by the run orchestrator.
package database
