package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memdev/internal/testutil"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// writeAll loops the partial-completion contract until data is fully
// written, the way a real caller would.
func writeAll(t *testing.T, s *Store, off int64, data string) {
	t.Helper()
	ctx := context.Background()
	for len(data) > 0 {
		n, err := s.Write(ctx, strings.NewReader(data), off, int64(len(data)))
		require.NoError(t, err)
		require.Positive(t, n, "write must make progress")
		off += n
		data = data[n:]
	}
}

// readAll loops reads from off until count bytes arrived or a call
// returns zero bytes.
func readAll(t *testing.T, s *Store, off, count int64) string {
	t.Helper()
	ctx := context.Background()
	var out bytes.Buffer
	for out.Len() < int(count) {
		n, err := s.Read(ctx, &out, off, count-int64(out.Len()))
		require.NoError(t, err)
		if n == 0 {
			break
		}
		off += n
	}
	return out.String()
}

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero quantum", Config{Quantum: 0, Qset: 2}},
		{"negative quantum", Config{Quantum: -1, Qset: 2}},
		{"zero qset", Config{Quantum: 4, Qset: 0}},
		{"negative budget", Config{Quantum: 4, Qset: 2, MaxBytes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestStore_Write_QuantumBoundaries(t *testing.T) {
	// The canonical scenario: quantum 4, qset 2, writing "ABCDEFGHIJ"
	// from position 0 takes exactly three calls returning 4, 4 and 2.
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	ctx := context.Background()

	data := "ABCDEFGHIJ"
	var counts []int64
	off := int64(0)
	for len(data) > 0 {
		n, err := s.Write(ctx, strings.NewReader(data), off, int64(len(data)))
		require.NoError(t, err)
		counts = append(counts, n)
		off += n
		data = data[n:]
	}

	assert.Equal(t, []int64{4, 4, 2}, counts)
	assert.Equal(t, int64(10), s.Size())
	assert.Equal(t, "ABCDEFGHIJ", readAll(t, s, 0, 10))
}

func TestStore_RoundTrip_MultipleNodes(t *testing.T) {
	// Span several nodes to exercise chain walking on both paths.
	s := newTestStore(t, Config{Quantum: 3, Qset: 2})
	data := "the quick brown fox jumps over the lazy dog"

	writeAll(t, s, 0, data)

	assert.Equal(t, int64(len(data)), s.Size())
	assert.Equal(t, data, readAll(t, s, 0, int64(len(data))))
}

func TestStore_Read_AtOrPastSize(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	writeAll(t, s, 0, "ABCD")

	var out bytes.Buffer
	for _, off := range []int64{4, 5, 100} {
		n, err := s.Read(context.Background(), &out, off, 8)
		require.NoError(t, err)
		assert.Zero(t, n, "read at offset %d must return zero bytes", off)
	}
}

func TestStore_Read_Hole(t *testing.T) {
	// A write far past the origin leaves holes: untouched nodes, and
	// untouched slots inside written nodes. Both read as zero bytes.
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	writeAll(t, s, 17, "XY")

	require.Equal(t, int64(19), s.Size())

	var out bytes.Buffer
	n, err := s.Read(context.Background(), &out, 0, 4)
	require.NoError(t, err)
	assert.Zero(t, n, "hole in an unallocated node reads as absent data")

	n, err = s.Read(context.Background(), &out, 16, 1)
	require.NoError(t, err)
	require.NotZero(t, n, "written region must read back")

	assert.Equal(t, "XY", readAll(t, s, 17, 2))
}

func TestStore_Size_Monotonic(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})

	writeAll(t, s, 0, "ABCDEFGH")
	require.Equal(t, int64(8), s.Size())

	// Rewriting earlier bytes never shrinks the size.
	writeAll(t, s, 2, "xy")
	assert.Equal(t, int64(8), s.Size())

	writeAll(t, s, 8, "Z")
	assert.Equal(t, int64(9), s.Size())
}

func TestStore_Trim(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	writeAll(t, s, 0, "ABCDEFGHIJ")
	require.Equal(t, int64(10), s.Size())
	require.NotEmpty(t, s.Nodes())

	s.Trim()

	assert.Zero(t, s.Size())
	assert.Empty(t, s.Nodes())
	assert.Equal(t, "", readAll(t, s, 0, 10), "after trim every read returns zero bytes")

	// Idempotent on an already-empty store.
	s.Trim()
	assert.Zero(t, s.Size())

	// The store stays usable.
	writeAll(t, s, 0, "new")
	assert.Equal(t, "new", readAll(t, s, 0, 3))
}

func TestStore_Read_BoundaryFault(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	writeAll(t, s, 0, "ABCD")

	n, err := s.Read(context.Background(), testutil.FaultWriter{Err: errors.New("bad endpoint")}, 0, 4)
	assert.Zero(t, n, "no bytes are considered delivered")
	assert.ErrorIs(t, err, ErrBoundaryFault)

	n, err = s.Read(context.Background(), testutil.ShortWriter{}, 0, 4)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrBoundaryFault)

	// Store state is untouched and the store stays usable.
	assert.Equal(t, int64(4), s.Size())
	assert.Equal(t, "ABCD", readAll(t, s, 0, 4))
}

func TestStore_Write_BoundaryFault(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})

	// The source promises 4 bytes but faults after 2.
	n, err := s.Write(context.Background(), &testutil.TruncatedReader{Data: []byte("AB")}, 0, 4)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrBoundaryFault)
	assert.Zero(t, s.Size(), "size never moves on a faulted transfer")

	n, err = s.Write(context.Background(), testutil.FaultReader{Err: errors.New("bad endpoint")}, 0, 4)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrBoundaryFault)
	assert.Zero(t, s.Size())

	// Subsequent writes succeed as usual.
	writeAll(t, s, 0, "ABCD")
	assert.Equal(t, int64(4), s.Size())
}

func TestStore_Interrupted_ExpiredContext(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := s.Read(ctx, &out, 0, 4)
	assert.ErrorIs(t, err, ErrInterrupted)

	_, err = s.Write(ctx, strings.NewReader("AB"), 0, 2)
	assert.ErrorIs(t, err, ErrInterrupted)

	// Retry with a live context succeeds.
	writeAll(t, s, 0, "AB")
	assert.Equal(t, int64(2), s.Size())
}

func TestStore_Interrupted_WhileWaiting(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})

	// Hold the lock from the outside so the operation has to wait.
	require.NoError(t, s.lock.acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Write(ctx, strings.NewReader("AB"), 0, 2)
		done <- err
	}()

	cancel()
	err := <-done
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Zero(t, s.size, "no state touched before the lock was held")

	s.lock.release()
}

func TestStore_OutOfMemory_RetainsPartialGrowth(t *testing.T) {
	// Budget arithmetic with quantum 4, qset 2: a node charges 64, a
	// slot array 16, a buffer 4. A budget of 150 admits two nodes but
	// not a third.
	s := newTestStore(t, Config{Quantum: 4, Qset: 2, MaxBytes: 150})

	// Offset 16 lives in node 2; growth stops after nodes 0 and 1.
	n, err := s.Write(context.Background(), strings.NewReader("AB"), 16, 2)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Zero(t, s.Size())
	assert.Len(t, s.Nodes(), 2, "nodes created before the failure stay attached")

	// The retained nodes serve later writes: offset 8 is node 1, and
	// its slot array plus one buffer fit the remaining budget.
	n, err = s.Write(context.Background(), strings.NewReader("AB"), 8, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(10), s.Size())
}

func TestStore_Trim_ReleasesBudget(t *testing.T) {
	s := newTestStore(t, Config{Quantum: 4, Qset: 2, MaxBytes: 90})

	// node(64) + slots(16) + buffer(4) = 84 fits; a second node does not.
	writeAll(t, s, 0, "ABCD")
	_, err := s.Write(context.Background(), strings.NewReader("AB"), 8, 2)
	require.ErrorIs(t, err, ErrOutOfMemory)

	s.Trim()

	// The whole charge came back.
	writeAll(t, s, 0, "EFGH")
	assert.Equal(t, "EFGH", readAll(t, s, 0, 4))
}

func TestStore_Serialized(t *testing.T) {
	// Concurrent writers on disjoint regions: the final content must be
	// consistent with some sequential ordering, with no corruption of
	// the chain.
	s := newTestStore(t, Config{Quantum: 4, Qset: 2})

	regions := []struct {
		off  int64
		data string
	}{
		{0, "AAAAAAAA"},
		{8, "BBBBBBBB"},
		{16, "CCCCCCCC"},
		{24, "DDDDDDDD"},
	}

	var wg sync.WaitGroup
	for _, r := range regions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			off, data := r.off, r.data
			for len(data) > 0 {
				n, err := s.Write(ctx, strings.NewReader(data), off, int64(len(data)))
				assert.NoError(t, err)
				off += n
				data = data[n:]
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(32), s.Size())
	for _, r := range regions {
		assert.Equal(t, r.data, readAll(t, s, r.off, int64(len(r.data))))
	}
}

func TestStore_Independent(t *testing.T) {
	a := newTestStore(t, Config{Quantum: 4, Qset: 2})
	b := newTestStore(t, Config{Quantum: 4, Qset: 2})

	writeAll(t, a, 0, "AAAA")
	assert.Zero(t, b.Size(), "stores share no state")

	a.Trim()
	writeAll(t, b, 0, "BB")
	assert.Equal(t, int64(2), b.Size())
	assert.Zero(t, a.Size())
}
