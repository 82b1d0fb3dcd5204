package store

import "context"

// sem is the per-store exclusive lock. The wait is interruptible: a
// cancelled context aborts the acquisition with ErrInterrupted, leaving
// the store untouched.
//
// Implemented as a one-slot channel semaphore so acquisition can race
// against ctx.Done in a single select.
type sem chan struct{}

func newSem() sem {
	return make(sem, 1)
}

// acquire blocks until the lock is held or ctx is cancelled.
// A context that is already cancelled never acquires the lock, so
// ErrInterrupted is deterministic for expired contexts.
func (s sem) acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrInterrupted
	default:
	}
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// release unlocks. Must only be called by the current holder.
func (s sem) release() {
	<-s
}
