// Package harness executes device I/O scenarios for conformance testing.
//
// A scenario is a YAML file describing a sequence of steps (open, read,
// write, seek, trim, close, dump) against a fresh device registry. The
// runner executes the steps, records a deterministic trace, and checks
// per-step expectations (counts, data, sizes, error codes).
//
// Traces are compared against golden files with goldie; regenerate with
//
//	go test ./internal/harness -update
//
// Handles are referred to by scenario-local labels, never by their
// runtime IDs, so traces are stable across runs.
package harness
