package store

import "errors"

// Sentinel errors for store operations. None of them is fatal to the
// store: after any of these outcomes the store stays fully usable.
var (
	// ErrOutOfMemory indicates that growing the chain (a node, a slot
	// array or a quantum buffer) would exceed the store's byte budget.
	// Allocations already linked in before the failure are retained.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrBoundaryFault indicates that the transfer to or from the
	// caller-supplied endpoint failed. No store state was mutated.
	ErrBoundaryFault = errors.New("transfer fault")

	// ErrInterrupted indicates that the lock wait was cancelled before
	// the operation touched any state. The call is safe to retry.
	ErrInterrupted = errors.New("interrupted")
)
