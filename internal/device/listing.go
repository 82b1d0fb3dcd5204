package device

import (
	"fmt"
	"io"
)

// Listing writes a diagnostic dump of every device: its geometry, its
// logical size and the allocation state of each chain node. Purely
// informational; nothing flows back into the stores.
func (r *Registry) Listing(w io.Writer) error {
	for minor, st := range r.stores {
		_, err := fmt.Fprintf(w, "Device %s: qset %d, quantum %d, size %d\n",
			r.Name(minor), st.Qset(), st.Quantum(), st.Size())
		if err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		for _, ns := range st.Nodes() {
			_, err := fmt.Fprintf(w, "  item %d: %d/%d slots allocated\n",
				ns.Index, ns.Allocated, st.Qset())
			if err != nil {
				return fmt.Errorf("writing listing: %w", err)
			}
		}
	}
	return nil
}
