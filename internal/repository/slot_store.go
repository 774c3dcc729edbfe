package repository

import (
	"context"
	"sync"
	"time"
)

// SlotStore is a key-value persistence slot holding one opaque JSON blob per key.
// Writes replace the whole value; there is no merge or versioning.
type SlotStore interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
}

// MemorySlotStore keeps slots in process memory.
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemorySlotStore constructs an empty in-memory slot store.
func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{slots: make(map[string][]byte)}
}

// Read returns a copy of the stored value.
func (s *MemorySlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Write stores a copy of value under key.
func (s *MemorySlotStore) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mu.Lock()
	s.slots[key] = stored
	s.mu.Unlock()
	return nil
}

type slotObserver interface {
	ObserveSlotOperation(backend, op string, duration time.Duration, err error)
}

type instrumentedSlotStore struct {
	inner    SlotStore
	backend  string
	observer slotObserver
}

// WithSlotMetrics decorates a slot store with latency/error observation.
func WithSlotMetrics(inner SlotStore, backend string, observer slotObserver) SlotStore {
	if observer == nil {
		return inner
	}
	return &instrumentedSlotStore{inner: inner, backend: backend, observer: observer}
}

func (s *instrumentedSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.inner.Read(ctx, key)
	s.observer.ObserveSlotOperation(s.backend, "read", time.Since(start), err)
	return value, ok, err
}

func (s *instrumentedSlotStore) Write(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.inner.Write(ctx, key, value)
	s.observer.ObserveSlotOperation(s.backend, "write", time.Since(start), err)
	return err
}
