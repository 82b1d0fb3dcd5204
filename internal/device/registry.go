package device

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/memdev/internal/store"
)

// Registry owns a numbered set of independent stores. Devices are
// created eagerly at registration time with identical geometry; their
// contents are fully independent afterwards.
type Registry struct {
	cfg    Config
	stores []*store.Store
	log    *slog.Logger
}

// NewRegistry creates cfg.Count devices. A nil logger falls back to the
// process default.
func NewRegistry(cfg Config, logger *slog.Logger) (*Registry, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	stores := make([]*store.Store, cfg.Count)
	for i := range stores {
		st, err := store.New(store.Config{
			Quantum:  cfg.Quantum,
			Qset:     cfg.Qset,
			MaxBytes: cfg.MaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("creating device %d: %w", i, err)
		}
		stores[i] = st
	}

	logger.Debug("devices registered",
		"count", cfg.Count, "quantum", cfg.Quantum, "qset", cfg.Qset)

	return &Registry{cfg: cfg, stores: stores, log: logger}, nil
}

// Count reports the number of devices.
func (r *Registry) Count() int { return len(r.stores) }

// Name returns the device name for a minor number, e.g. "mem0".
func (r *Registry) Name(minor int) string { return fmt.Sprintf("mem%d", minor) }

// Store resolves a minor number to its store.
func (r *Registry) Store(minor int) (*store.Store, error) {
	if minor < 0 || minor >= len(r.stores) {
		return nil, fmt.Errorf("minor %d: %w", minor, ErrNoDevice)
	}
	return r.stores[minor], nil
}

// Open returns a handle on the device with position 0. A write-only open
// trims the device first; the trim runs outside the store's lock, so it
// may race a transfer in flight on another handle (preserved behavior).
func (r *Registry) Open(minor int, mode Mode) (*Handle, error) {
	st, err := r.Store(minor)
	if err != nil {
		return nil, err
	}

	if mode == WriteOnly {
		st.Trim()
		r.log.Debug("device trimmed on write-only open", "device", r.Name(minor))
	}

	h := &Handle{
		id:   uuid.New(),
		name: r.Name(minor),
		mode: mode,
		st:   st,
		log:  r.log,
	}
	r.log.Debug("device opened", "device", h.name, "mode", mode.String(), "handle", h.id)
	return h, nil
}

// Trim truncates one device explicitly. Like the implicit open-time trim
// it takes no store lock.
func (r *Registry) Trim(minor int) error {
	st, err := r.Store(minor)
	if err != nil {
		return err
	}
	st.Trim()
	r.log.Debug("device trimmed", "device", r.Name(minor))
	return nil
}

// Close trims every device, releasing all chain memory. The registry's
// stores remain valid but empty, matching the modeled cleanup path.
func (r *Registry) Close() error {
	for i, st := range r.stores {
		st.Trim()
		r.log.Debug("device reclaimed", "device", r.Name(i))
	}
	return nil
}
