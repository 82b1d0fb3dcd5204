package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a device configuration and
// an ordered list of steps with optional expectations.
type Scenario struct {
	// Name uniquely identifies the scenario; it is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Devices overrides the device configuration. Zero fields fall
	// back to the base configuration the runner was given.
	Devices *Devices `yaml:"devices,omitempty"`

	// Steps is the ordered step list.
	Steps []Step `yaml:"steps"`
}

// Devices is the scenario-level device configuration override.
type Devices struct {
	Quantum  int   `yaml:"quantum,omitempty"`
	Qset     int   `yaml:"qset,omitempty"`
	Count    int   `yaml:"count,omitempty"`
	MaxBytes int64 `yaml:"max_bytes,omitempty"`
}

// Step is a single scenario operation.
type Step struct {
	// Op is one of: open, read, write, seek, trim, close, dump.
	Op string `yaml:"op"`

	// Handle is the scenario-local handle label. Required for open,
	// read, write, seek and close.
	Handle string `yaml:"handle,omitempty"`

	// Device is the minor number, used by open and trim.
	Device int `yaml:"device,omitempty"`

	// Mode is the open mode: ro, wo or rw.
	Mode string `yaml:"mode,omitempty"`

	// Data is the payload for write, repeated Repeat times (default 1).
	Data   string `yaml:"data,omitempty"`
	Repeat int    `yaml:"repeat,omitempty"`

	// Count is the number of bytes a read asks for.
	Count int `yaml:"count,omitempty"`

	// Offset and Whence direct a seek. Whence is start, current or
	// end; start is the default.
	Offset int64  `yaml:"offset,omitempty"`
	Whence string `yaml:"whence,omitempty"`

	// Full loops a read or write until the requested bytes moved or
	// no progress is possible. Without it a single partial call runs.
	Full bool `yaml:"full,omitempty"`

	// Expect checks the step outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step. Nil fields are not
// checked.
type Expect struct {
	// Count is the expected transferred byte count.
	Count *int64 `yaml:"count,omitempty"`

	// Data is the expected payload read back.
	Data *string `yaml:"data,omitempty"`

	// Size is the expected device size after the step.
	Size *int64 `yaml:"size,omitempty"`

	// Error is the expected error code: out-of-memory, boundary-fault,
	// interrupted, bad-mode, no-device, closed or bad-seek. Empty
	// means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// EOF expects a read to report end of data.
	EOF bool `yaml:"eof,omitempty"`
}

// Step op constants.
const (
	OpOpen  = "open"
	OpRead  = "read"
	OpWrite = "write"
	OpSeek  = "seek"
	OpTrim  = "trim"
	OpClose = "close"
	OpDump  = "dump"
)

// LoadScenario reads and parses a scenario file. Unknown YAML fields are
// rejected to catch typos; structural problems (missing names, steps
// without required fields) are reported here rather than at run time.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}

	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case OpOpen:
		if st.Handle == "" {
			return fmt.Errorf("open requires a handle label")
		}
		if st.Mode == "" {
			return fmt.Errorf("open requires a mode")
		}
	case OpRead:
		if st.Handle == "" {
			return fmt.Errorf("read requires a handle label")
		}
		if st.Count <= 0 {
			return fmt.Errorf("read requires a positive count")
		}
	case OpWrite:
		if st.Handle == "" {
			return fmt.Errorf("write requires a handle label")
		}
		if st.Data == "" {
			return fmt.Errorf("write requires data")
		}
	case OpSeek:
		if st.Handle == "" {
			return fmt.Errorf("seek requires a handle label")
		}
		switch st.Whence {
		case "", "start", "current", "end":
		default:
			return fmt.Errorf("invalid whence %q", st.Whence)
		}
	case OpClose:
		if st.Handle == "" {
			return fmt.Errorf("close requires a handle label")
		}
	case OpTrim, OpDump:
	case "":
		return fmt.Errorf("step op is required")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}
