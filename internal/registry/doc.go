// Package registry owns the leak entry lifecycle. It applies diff results
// to the durable registry for one tracked entity at a time, decides which
// transitions are notification-worthy, and serves the read-only listing
// consumed by the presentation layer.
//
// The registry is the only writer of leak entries. Application is atomic
// per entity: a single store transaction guarded by a per-entity lock, so
// concurrent runs can never interleave transitions for the same entity.
package registry
