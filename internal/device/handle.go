package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/memdev/internal/store"
)

// Handle is an open file on a device. It owns the file position; the
// store owns everything else. Handles on the same device see each
// other's writes immediately.
//
// Read and Write follow the device's partial-completion contract: a call
// may move fewer bytes than asked with a nil error, and callers loop.
// Because of that Handle deliberately does not promise the io.Writer
// short-write guarantee.
type Handle struct {
	id   uuid.UUID
	name string
	mode Mode
	st   *store.Store
	log  *slog.Logger

	mu     sync.Mutex // guards pos and closed
	pos    int64
	closed bool
}

// ID returns the handle's identity, used for log correlation only.
func (h *Handle) ID() uuid.UUID { return h.id }

// Device returns the name of the device this handle is open on.
func (h *Handle) Device() string { return h.name }

// Mode returns the access mode the handle was opened with.
func (h *Handle) Mode() Mode { return h.mode }

// Pos returns the current file position.
func (h *Handle) Pos() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// Read reads at most len(p) bytes at the current position, advancing it
// by the returned count. Returns io.EOF when the position is at or past
// the device size, or when the position sits in a hole.
func (h *Handle) Read(p []byte) (int, error) {
	return h.ReadContext(context.Background(), p)
}

// ReadContext is Read with a cancellable lock wait. Cancellation while
// waiting surfaces as store.ErrInterrupted and the call may be retried.
func (h *Handle) ReadContext(ctx context.Context, p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	if !h.mode.readable() {
		return 0, fmt.Errorf("read %s: %w", h.name, ErrBadMode)
	}

	// bytes.NewBuffer(p[:0]) appends into p's backing array; the store
	// transfers at most len(p) bytes so it never reallocates.
	buf := bytes.NewBuffer(p[:0])
	n, err := h.st.Read(ctx, buf, h.pos, int64(len(p)))
	if err != nil {
		return 0, err
	}
	h.pos += n
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	h.log.Debug("read", "device", h.name, "handle", h.id, "n", n, "pos", h.pos)
	return int(n), nil
}

// Write writes at most len(p) bytes at the current position, advancing
// it by the returned count. A short count with a nil error is the normal
// partial-completion outcome, not a failure.
func (h *Handle) Write(p []byte) (int, error) {
	return h.WriteContext(context.Background(), p)
}

// WriteContext is Write with a cancellable lock wait.
func (h *Handle) WriteContext(ctx context.Context, p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	if !h.mode.writable() {
		return 0, fmt.Errorf("write %s: %w", h.name, ErrBadMode)
	}

	n, err := h.st.Write(ctx, bytes.NewReader(p), h.pos, int64(len(p)))
	if err != nil {
		return 0, err
	}
	h.pos += n
	h.log.Debug("write", "device", h.name, "handle", h.id, "n", n, "pos", h.pos)
	return int(n), nil
}

// Seek sets the file position per the io.Seeker contract. Seeking past
// the current size is allowed; a later write there leaves a hole behind.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = h.pos + offset
	case io.SeekEnd:
		pos = h.st.Size() + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("seek to %d: %w", pos, ErrBadSeek)
	}
	h.pos = pos
	return pos, nil
}

// Close invalidates the handle. There is nothing to flush: every write
// was reflected in the store when it completed. Idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.log.Debug("handle closed", "device", h.name, "handle", h.id)
	return nil
}
