// Package testutil provides deterministic I/O endpoints for tests.
//
// Boundary faults are modeled through failing io.Reader and io.Writer
// endpoints: tests hand these to the store to exercise the transfer
// failure paths without touching real I/O.
package testutil

import "io"

// FaultWriter fails every write with Err, transferring nothing.
type FaultWriter struct {
	Err error
}

// Write implements io.Writer.
func (w FaultWriter) Write(p []byte) (int, error) {
	return 0, w.Err
}

// ShortWriter accepts only half of every write and reports no error,
// simulating a destination that silently loses bytes.
type ShortWriter struct{}

// Write implements io.Writer.
func (ShortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

// FaultReader fails every read with Err, producing nothing.
type FaultReader struct {
	Err error
}

// Read implements io.Reader.
func (r FaultReader) Read(p []byte) (int, error) {
	return 0, r.Err
}

// TruncatedReader yields Data and then clean EOF, regardless of how many
// bytes the caller asked for. A source that promised more than it holds.
type TruncatedReader struct {
	Data []byte
	off  int
}

// Read implements io.Reader.
func (r *TruncatedReader) Read(p []byte) (int, error) {
	if r.off >= len(r.Data) {
		return 0, io.EOF
	}
	n := copy(p, r.Data[r.off:])
	r.off += n
	return n, nil
}
