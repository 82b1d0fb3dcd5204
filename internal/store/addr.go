package store

// position addresses a single byte inside the two-level chain.
type position struct {
	node int64 // index of the chain node covering the byte
	slot int   // slot inside the node's slot array
	rest int   // offset inside the slot's quantum buffer
}

// locate maps a linear byte offset onto the chain for the given geometry.
// Node i covers the half-open range [i*quantum*qset, (i+1)*quantum*qset).
// Pure arithmetic: total for off >= 0 and positive quantum and qset, and
// never allocates.
func locate(off int64, quantum, qset int) position {
	itemsize := int64(quantum) * int64(qset)
	rest := off % itemsize
	return position{
		node: off / itemsize,
		slot: int(rest / int64(quantum)),
		rest: int(rest % int64(quantum)),
	}
}

// linear is the inverse of locate. Used by tests to verify the mapping
// and by diagnostics to report node coverage.
func (p position) linear(quantum, qset int) int64 {
	return p.node*int64(quantum)*int64(qset) + int64(p.slot)*int64(quantum) + int64(p.rest)
}
