// Package device exposes the sparse stores as numbered pseudo-devices.
//
// A Registry owns a fixed set of independent stores, addressed by minor
// number and named mem0..memN-1. Callers obtain a Handle with Open; the
// handle carries the access mode and the file position, and delegates
// transfers to the store with the partial-completion contract intact.
//
// Opening a device write-only trims it first, before any read or write is
// issued against the handle. As in the modeled behavior this trim happens
// outside the store's lock, so a truncating open can race an in-flight
// transfer from another handle; the race is preserved deliberately.
//
// Closing a handle flushes nothing: every write is reflected in the store
// the moment it completes.
package device
