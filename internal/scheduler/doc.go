// Package scheduler drives periodic monitoring runs. It runs once at
// startup, then on every tick of the configured interval, and whenever a
// manual trigger arrives from the admin API. The query registry file is
// re-read before each run so registry edits take effect without a restart.
package scheduler
