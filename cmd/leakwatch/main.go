// Package main provides the entry point for the leakwatch CLI.
//
// Leakwatch monitors data breach search providers for exposures of
// configured domains, emails, and keywords. It diffs each poll against
// the previous snapshot, tracks every exposure through a new, existing,
// and deleted lifecycle, and alerts on changes.
//
// Usage:
//
//	leakwatch run
//	leakwatch serve
//	leakwatch leaks --status new
//
// See --help for all available options.
package main

// main is the entry point for leakwatch.
func main() {
	Execute()
}
