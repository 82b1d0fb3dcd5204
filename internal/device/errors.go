package device

import "errors"

// Sentinel errors for device operations.
var (
	// ErrNoDevice indicates a minor number outside the registry.
	ErrNoDevice = errors.New("no such device")

	// ErrBadMode indicates an operation the handle's mode forbids:
	// reading a write-only handle or writing a read-only one.
	ErrBadMode = errors.New("operation not permitted by open mode")

	// ErrClosed indicates use of a handle after Close.
	ErrClosed = errors.New("handle is closed")

	// ErrBadSeek indicates a seek that would land before the origin.
	ErrBadSeek = errors.New("invalid seek position")
)
