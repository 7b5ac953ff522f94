package store

import (
	"context"
	"sync"

	"github.com/roach88/vats/internal/device"
)

// MemoryStore is an in-process Store holding deep copies. Used by the
// scenario harness and tests.
type MemoryStore struct {
	mu      sync.Mutex
	devices []device.Device
	saves   int
}

// NewMemoryStore creates a store pre-populated with devices.
func NewMemoryStore(devices ...device.Device) *MemoryStore {
	return &MemoryStore{devices: device.CloneAll(devices)}
}

// Load returns a copy of the stored collection.
func (s *MemoryStore) Load(ctx context.Context) ([]device.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, device.NewStorageError("load cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := device.CloneAll(s.devices)
	if out == nil {
		out = []device.Device{}
	}
	return out, nil
}

// Save replaces the stored collection with a copy of devices.
func (s *MemoryStore) Save(ctx context.Context, devices []device.Device) error {
	if err := ctx.Err(); err != nil {
		return device.NewStorageError("save cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = device.CloneAll(devices)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
