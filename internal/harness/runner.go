package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/memdev/internal/device"
	"github.com/roach88/memdev/internal/store"
)

// Event is one trace record. Traces contain only deterministic values:
// handle labels, device names, counts and payloads.
type Event struct {
	Op     string   `json:"op"`
	Handle string   `json:"handle,omitempty"`
	Device string   `json:"device,omitempty"`
	Mode   string   `json:"mode,omitempty"`
	N      int64    `json:"n,omitempty"`
	Data   string   `json:"data,omitempty"`
	Pos    int64    `json:"pos,omitempty"`
	Size   int64    `json:"size,omitempty"`
	Calls  int      `json:"calls,omitempty"`
	EOF    bool     `json:"eof,omitempty"`
	Error  string   `json:"error,omitempty"`
	Lines  []string `json:"lines,omitempty"`
}

// String renders the event as one trace line (plus indented payload
// lines for dumps). The rendering is the golden-file format.
func (e Event) String() string {
	switch e.Op {
	case OpOpen:
		return fmt.Sprintf("open %s %s mode=%s", e.Handle, e.Device, e.Mode)
	case OpWrite:
		if e.Error != "" {
			return fmt.Sprintf("write %s error=%s", e.Handle, e.Error)
		}
		line := fmt.Sprintf("write %s n=%d data=%q size=%d", e.Handle, e.N, e.Data, e.Size)
		if e.Calls > 1 {
			line += fmt.Sprintf(" calls=%d", e.Calls)
		}
		return line
	case OpRead:
		if e.Error != "" {
			return fmt.Sprintf("read %s error=%s", e.Handle, e.Error)
		}
		line := fmt.Sprintf("read %s n=%d", e.Handle, e.N)
		if e.N > 0 {
			line += fmt.Sprintf(" data=%q", e.Data)
		}
		if e.Calls > 1 {
			line += fmt.Sprintf(" calls=%d", e.Calls)
		}
		if e.EOF {
			line += " eof"
		}
		return line
	case OpSeek:
		if e.Error != "" {
			return fmt.Sprintf("seek %s error=%s", e.Handle, e.Error)
		}
		return fmt.Sprintf("seek %s pos=%d", e.Handle, e.Pos)
	case OpTrim:
		if e.Error != "" {
			return fmt.Sprintf("trim %s error=%s", e.Device, e.Error)
		}
		return fmt.Sprintf("trim %s", e.Device)
	case OpClose:
		return fmt.Sprintf("close %s", e.Handle)
	case OpDump:
		var b strings.Builder
		b.WriteString("dump")
		for _, line := range e.Lines {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
		return b.String()
	default:
		return e.Op
	}
}

// Trace is the ordered event record of one scenario run.
type Trace struct {
	Scenario string  `json:"scenario"`
	Events   []Event `json:"events"`
}

// Text renders the trace in the golden-file format.
func (tr *Trace) Text() string {
	var b strings.Builder
	for _, e := range tr.Events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Result is the outcome of a scenario run. Failures are expectation
// mismatches; structural problems surface as errors from Run instead.
type Result struct {
	Trace    *Trace   `json:"trace"`
	Failures []string `json:"failures,omitempty"`

	// FinalListing is the device listing captured after the last step,
	// before the registry is reclaimed.
	FinalListing string `json:"final_listing,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes the scenario against a fresh registry using the default
// device configuration as the base.
func Run(s *Scenario) (*Result, error) {
	return RunWith(s, device.DefaultConfig())
}

// RunWith executes the scenario with base as the device configuration;
// non-zero fields of the scenario's devices section take precedence.
func RunWith(s *Scenario, base device.Config) (*Result, error) {
	cfg := base
	if s.Devices != nil {
		if s.Devices.Quantum != 0 {
			cfg.Quantum = s.Devices.Quantum
		}
		if s.Devices.Qset != 0 {
			cfg.Qset = s.Devices.Qset
		}
		if s.Devices.Count != 0 {
			cfg.Count = s.Devices.Count
		}
		if s.Devices.MaxBytes != 0 {
			cfg.MaxBytes = s.Devices.MaxBytes
		}
	}

	reg, err := device.NewRegistry(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	defer func() { _ = reg.Close() }()

	r := &runner{
		reg:     reg,
		handles: make(map[string]*device.Handle),
		minors:  make(map[string]int),
		result:  &Result{Trace: &Trace{Scenario: s.Name}},
	}

	for i, step := range s.Steps {
		ev, err := r.execute(step)
		if err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %w", s.Name, i+1, err)
		}
		r.result.Trace.Events = append(r.result.Trace.Events, ev)
		r.check(i+1, step, ev)
	}

	var listing bytes.Buffer
	if err := reg.Listing(&listing); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	r.result.FinalListing = listing.String()

	return r.result, nil
}

type runner struct {
	reg     *device.Registry
	handles map[string]*device.Handle
	minors  map[string]int // handle label -> minor, for size checks
	result  *Result
}

func (r *runner) execute(step Step) (Event, error) {
	switch step.Op {
	case OpOpen:
		return r.open(step)
	case OpRead:
		return r.read(step)
	case OpWrite:
		return r.write(step)
	case OpSeek:
		return r.seek(step)
	case OpTrim:
		ev := Event{Op: OpTrim, Device: r.reg.Name(step.Device)}
		if err := r.reg.Trim(step.Device); err != nil {
			ev.Error = errorCode(err)
		}
		return ev, nil
	case OpClose:
		h, err := r.handle(step.Handle)
		if err != nil {
			return Event{}, err
		}
		if err := h.Close(); err != nil {
			return Event{Op: OpClose, Handle: step.Handle, Error: errorCode(err)}, nil
		}
		return Event{Op: OpClose, Handle: step.Handle}, nil
	case OpDump:
		var buf bytes.Buffer
		if err := r.reg.Listing(&buf); err != nil {
			return Event{}, err
		}
		text := strings.TrimSuffix(buf.String(), "\n")
		return Event{Op: OpDump, Lines: strings.Split(text, "\n")}, nil
	default:
		return Event{}, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *runner) open(step Step) (Event, error) {
	if _, exists := r.handles[step.Handle]; exists {
		return Event{}, fmt.Errorf("handle label %q already in use", step.Handle)
	}
	mode, err := device.ParseMode(step.Mode)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		Op:     OpOpen,
		Handle: step.Handle,
		Device: r.reg.Name(step.Device),
		Mode:   mode.String(),
	}
	h, err := r.reg.Open(step.Device, mode)
	if err != nil {
		ev.Error = errorCode(err)
		return ev, nil
	}
	r.handles[step.Handle] = h
	r.minors[step.Handle] = step.Device
	return ev, nil
}

func (r *runner) read(step Step) (Event, error) {
	h, err := r.handle(step.Handle)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Op: OpRead, Handle: step.Handle}
	buf := make([]byte, step.Count)
	total := 0
	for {
		n, err := h.Read(buf[total:])
		ev.Calls++
		total += n
		if err == io.EOF {
			ev.EOF = true
			break
		}
		if err != nil {
			ev.Error = errorCode(err)
			return ev, nil
		}
		if !step.Full || total == step.Count {
			break
		}
	}
	ev.N = int64(total)
	ev.Data = string(buf[:total])
	return ev, nil
}

func (r *runner) write(step Step) (Event, error) {
	h, err := r.handle(step.Handle)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Op: OpWrite, Handle: step.Handle}
	payload := []byte(strings.Repeat(step.Data, max(step.Repeat, 1)))
	total := 0
	for {
		n, err := h.Write(payload[total:])
		ev.Calls++
		total += n
		if err != nil {
			ev.Error = errorCode(err)
			return ev, nil
		}
		if !step.Full || total == len(payload) || n == 0 {
			break
		}
	}
	ev.N = int64(total)
	ev.Data = string(payload[:total])
	ev.Size = r.size(step.Handle)
	return ev, nil
}

func (r *runner) seek(step Step) (Event, error) {
	h, err := r.handle(step.Handle)
	if err != nil {
		return Event{}, err
	}

	pos, err := h.Seek(step.Offset, parseWhence(step.Whence))
	if err != nil {
		return Event{Op: OpSeek, Handle: step.Handle, Error: errorCode(err)}, nil
	}
	return Event{Op: OpSeek, Handle: step.Handle, Pos: pos}, nil
}

func (r *runner) handle(label string) (*device.Handle, error) {
	h, ok := r.handles[label]
	if !ok {
		return nil, fmt.Errorf("unknown handle label %q", label)
	}
	return h, nil
}

// size reports the current size of the device behind a handle label.
func (r *runner) size(label string) int64 {
	st, err := r.reg.Store(r.minors[label])
	if err != nil {
		return 0
	}
	return st.Size()
}

// check records expectation mismatches for one executed step.
func (r *runner) check(num int, step Step, ev Event) {
	ex := step.Expect
	if ex == nil {
		return
	}
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf("step %d (%s): ", num, step.Op) + fmt.Sprintf(format, args...)
		r.result.Failures = append(r.result.Failures, msg)
	}

	if ev.Error != ex.Error {
		switch {
		case ex.Error == "":
			fail("unexpected error %s", ev.Error)
		case ev.Error == "":
			fail("expected error %s, step succeeded", ex.Error)
		default:
			fail("error = %s, want %s", ev.Error, ex.Error)
		}
		return
	}
	if ex.Count != nil && ev.N != *ex.Count {
		fail("count = %d, want %d", ev.N, *ex.Count)
	}
	if ex.Data != nil && ev.Data != *ex.Data {
		fail("data = %q, want %q", ev.Data, *ex.Data)
	}
	if ex.EOF != ev.EOF {
		fail("eof = %v, want %v", ev.EOF, ex.EOF)
	}
	if ex.Size != nil {
		size := ev.Size
		if step.Op != OpWrite {
			if step.Handle != "" {
				size = r.size(step.Handle)
			} else {
				st, err := r.reg.Store(step.Device)
				if err == nil {
					size = st.Size()
				}
			}
		}
		if size != *ex.Size {
			fail("size = %d, want %d", size, *ex.Size)
		}
	}
}

func parseWhence(s string) int {
	switch s {
	case "current":
		return io.SeekCurrent
	case "end":
		return io.SeekEnd
	default:
		return io.SeekStart
	}
}

// errorCode maps store and device errors onto the stable codes used in
// scenario expectations and traces.
func errorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrOutOfMemory):
		return "out-of-memory"
	case errors.Is(err, store.ErrBoundaryFault):
		return "boundary-fault"
	case errors.Is(err, store.ErrInterrupted):
		return "interrupted"
	case errors.Is(err, device.ErrBadMode):
		return "bad-mode"
	case errors.Is(err, device.ErrNoDevice):
		return "no-device"
	case errors.Is(err, device.ErrClosed):
		return "closed"
	case errors.Is(err, device.ErrBadSeek):
		return "bad-seek"
	default:
		return "error"
	}
}
