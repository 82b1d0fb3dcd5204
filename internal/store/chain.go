package store

// node is one element of the singly-linked chain. Its slot array is nil
// until the first write into the node; within an allocated slot array,
// a nil slot is a hole that was never written.
//
// Ownership is strictly nested: the store owns the chain head, every node
// owns its successor, its slot array and each allocated buffer, so
// dropping the head releases the whole structure at once.
type node struct {
	slots [][]byte
	next  *node
}

// Approximate heap charge of chain bookkeeping against the byte budget.
// Buffers are charged at their exact size; nodes and slot pointers at a
// flat per-object estimate.
const (
	nodeCost    = 64
	slotPtrCost = 8
)

// followCreate walks the chain to node n, extending it with zeroed nodes
// along the way. On a budget failure partway the nodes already created
// stay attached to the chain; the caller must not assume the chain now
// reaches n. An index within the existing chain performs no allocation
// and cannot fail.
func (s *Store) followCreate(n int64) (*node, error) {
	if s.head == nil {
		qs, err := s.newNode()
		if err != nil {
			return nil, err
		}
		s.head = qs
	}
	qs := s.head
	for ; n > 0; n-- {
		if qs.next == nil {
			next, err := s.newNode()
			if err != nil {
				return nil, err
			}
			qs.next = next
		}
		qs = qs.next
	}
	return qs, nil
}

// follow walks the chain to node n without allocating. Returns nil when
// the chain does not reach n, which the read path reports as a hole.
func (s *Store) follow(n int64) *node {
	qs := s.head
	for ; qs != nil && n > 0; n-- {
		qs = qs.next
	}
	return qs
}

func (s *Store) newNode() (*node, error) {
	if err := s.reserve(nodeCost); err != nil {
		return nil, err
	}
	return &node{}, nil
}

// slotArray returns the node's slot array, allocating it on first use.
func (s *Store) slotArray(qs *node) ([][]byte, error) {
	if qs.slots == nil {
		if err := s.reserve(int64(s.qset) * slotPtrCost); err != nil {
			return nil, err
		}
		qs.slots = make([][]byte, s.qset)
	}
	return qs.slots, nil
}

// buffer returns the quantum buffer for the given slot, allocating it on
// first write. A slot array freshly allocated by a failed write is kept
// for future writes, never rolled back.
func (s *Store) buffer(qs *node, slot int) ([]byte, error) {
	slots, err := s.slotArray(qs)
	if err != nil {
		return nil, err
	}
	if slots[slot] == nil {
		if err := s.reserve(int64(s.quantum)); err != nil {
			return nil, err
		}
		slots[slot] = make([]byte, s.quantum)
	}
	return slots[slot], nil
}

// reserve charges n bytes against the budget. A zero budget is unlimited.
func (s *Store) reserve(n int64) error {
	if s.cfg.MaxBytes > 0 && s.used+n > s.cfg.MaxBytes {
		return ErrOutOfMemory
	}
	s.used += n
	return nil
}
