package store

import (
	"context"
	"fmt"
	"io"
)

// Config fixes a store's geometry at construction time. Quantum and Qset
// never change while data exists; Trim restores them, so the only way to
// re-geometry a store is trim-to-empty plus a new Store.
type Config struct {
	// Quantum is the size in bytes of one lazily allocated buffer.
	Quantum int

	// Qset is the number of buffer slots per chain node.
	Qset int

	// MaxBytes caps the memory charged to chain growth. Zero means
	// unlimited. Growth beyond the cap fails with ErrOutOfMemory.
	MaxBytes int64
}

func (c Config) validate() error {
	if c.Quantum <= 0 {
		return fmt.Errorf("quantum must be positive, got %d", c.Quantum)
	}
	if c.Qset <= 0 {
		return fmt.Errorf("qset must be positive, got %d", c.Qset)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("max bytes must not be negative, got %d", c.MaxBytes)
	}
	return nil
}

// Store is one in-memory sparse byte store. All operations on one store
// are fully serialized by its lock; distinct stores share nothing.
//
// The zero value is not usable; construct with New.
type Store struct {
	lock sem
	cfg  Config // configured defaults, restored by Trim

	head    *node
	size    int64
	quantum int
	qset    int
	used    int64 // bytes charged against cfg.MaxBytes
}

// New creates an empty store with the given geometry.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return &Store{
		lock:    newSem(),
		cfg:     cfg,
		quantum: cfg.Quantum,
		qset:    cfg.Qset,
	}, nil
}

// Read copies at most count bytes starting at off into dst.
//
// The returned count follows the partial-completion contract: a single
// call never crosses a quantum boundary, returns zero at or past the
// current size, and returns zero for a hole that was never written.
// Callers loop to read more. A failed or short dst.Write reports
// ErrBoundaryFault with no bytes considered delivered.
func (s *Store) Read(ctx context.Context, dst io.Writer, off, count int64) (int64, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if err := s.lock.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.lock.release()

	if off >= s.size || count <= 0 {
		return 0, nil
	}
	if off+count > s.size {
		count = s.size - off
	}

	pos := locate(off, s.quantum, s.qset)
	qs := s.follow(pos.node)
	if qs == nil || qs.slots == nil || qs.slots[pos.slot] == nil {
		return 0, nil // hole: absent data, not fabricated zeroes
	}

	// Transfer only up to the end of this quantum.
	if count > int64(s.quantum-pos.rest) {
		count = int64(s.quantum - pos.rest)
	}
	n, err := dst.Write(qs.slots[pos.slot][pos.rest : pos.rest+int(count)])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBoundaryFault, err)
	}
	if int64(n) != count {
		return 0, fmt.Errorf("%w: %w", ErrBoundaryFault, io.ErrShortWrite)
	}
	return count, nil
}

// Write copies at most count bytes from src into the store at off,
// growing the chain, the node's slot array and the target buffer on
// demand. A single call never crosses a quantum boundary; callers loop.
//
// On ErrOutOfMemory the size is untouched but chain growth that already
// happened is retained for future writes. A failed src read reports
// ErrBoundaryFault with size untouched.
func (s *Store) Write(ctx context.Context, src io.Reader, off, count int64) (int64, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if err := s.lock.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.lock.release()

	if count <= 0 {
		return 0, nil
	}

	pos := locate(off, s.quantum, s.qset)
	qs, err := s.followCreate(pos.node)
	if err != nil {
		return 0, err
	}
	buf, err := s.buffer(qs, pos.slot)
	if err != nil {
		return 0, err
	}

	if count > int64(s.quantum-pos.rest) {
		count = int64(s.quantum - pos.rest)
	}
	if _, err := io.ReadFull(src, buf[pos.rest:pos.rest+int(count)]); err != nil {
		// The buffer may hold a partial transfer, like a faulted
		// copy from user space; size and position never move.
		return 0, fmt.Errorf("%w: %w", ErrBoundaryFault, err)
	}

	if off+count > s.size {
		s.size = off + count
	}
	return count, nil
}

// Trim drops the whole chain and resets the store to its configured
// empty state. Idempotent.
//
// Trim takes no lock: the modeled behavior allows a truncating open to
// race an in-flight read or write on the same store, and that race is
// preserved here rather than silently closed.
func (s *Store) Trim() {
	s.head = nil
	s.size = 0
	s.quantum = s.cfg.Quantum
	s.qset = s.cfg.Qset
	s.used = 0
}

// Size reports the current logical size: the highest end position any
// successful write has reached since the last trim.
func (s *Store) Size() int64 {
	_ = s.lock.acquire(context.Background())
	defer s.lock.release()
	return s.size
}

// Quantum reports the configured buffer size in bytes.
func (s *Store) Quantum() int { return s.cfg.Quantum }

// Qset reports the configured number of slots per node.
func (s *Store) Qset() int { return s.cfg.Qset }

// NodeSummary describes one chain node for diagnostics.
type NodeSummary struct {
	Index     int64 // position in the chain
	Allocated int   // slots holding a buffer
}

// Nodes reports the chain layout in creation order. Diagnostic only; it
// carries no data out of the engine.
func (s *Store) Nodes() []NodeSummary {
	_ = s.lock.acquire(context.Background())
	defer s.lock.release()

	var summary []NodeSummary
	idx := int64(0)
	for qs := s.head; qs != nil; qs = qs.next {
		allocated := 0
		for _, slot := range qs.slots {
			if slot != nil {
				allocated++
			}
		}
		summary = append(summary, NodeSummary{Index: idx, Allocated: allocated})
		idx++
	}
	return summary
}
