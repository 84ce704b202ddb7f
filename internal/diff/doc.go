// Package diff computes the symmetric difference between two snapshots of
// search results for one query. The engine is a pure function over two
// identity sets: it performs no I/O, holds no state, and is safe to call
// concurrently for different queries.
package diff
