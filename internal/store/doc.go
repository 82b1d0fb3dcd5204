// Package store implements the in-memory sparse storage engine behind a
// memdev device.
//
// A Store maps a linear byte offset onto a chain of nodes. Each node covers
// quantum*qset bytes and owns an array of qset slots; each slot lazily owns
// one quantum-sized buffer. Nothing is allocated until a write reaches it,
// so a store whose logical size is large may occupy very little memory when
// writes left holes behind.
//
// # Critical Patterns
//
// CP-1: Lazy Two-Level Allocation
//   - Nodes, slot arrays and buffers are allocated on first write only
//   - A hole inside [0, size) reads as zero bytes, never as fabricated data
//
// CP-2: Partial-Completion Contract
//   - Read and Write transfer at most up to the end of one quantum buffer
//   - Callers loop to move more; the engine never loops internally
//
// CP-3: Full Serialization
//   - One exclusive lock per store guards the chain, size, quantum and qset
//   - The lock wait is interruptible via context; cancellation surfaces as
//     ErrInterrupted before any state is touched
//
// CP-4: Trim Outside the Lock
//   - Trim deliberately does not take the store lock, matching the modeled
//     behavior where a truncating open may race an in-flight transfer
//
// Allocation failure is modeled through an optional byte budget (MaxBytes).
// Growth that would exceed the budget fails with ErrOutOfMemory; chain
// nodes already created before the failure stay attached and are reused by
// later writes.
package store
