package device

import "fmt"

// Mode selects the access rights of a handle.
type Mode int

const (
	// ReadOnly permits reads only.
	ReadOnly Mode = iota
	// WriteOnly permits writes only. Opening a device write-only trims
	// it before the handle is returned.
	WriteOnly
	// ReadWrite permits both.
	ReadWrite
)

// String returns the short form used in scenarios and logs.
func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the short form accepted in scenario files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ro":
		return ReadOnly, nil
	case "wo":
		return WriteOnly, nil
	case "rw":
		return ReadWrite, nil
	default:
		return 0, fmt.Errorf("invalid mode %q: must be ro, wo or rw", s)
	}
}

func (m Mode) readable() bool { return m == ReadOnly || m == ReadWrite }
func (m Mode) writable() bool { return m == WriteOnly || m == ReadWrite }
