package kv

import (
	"context"
	"sync"
)

// MemoryBackend keeps values and streams in process memory. Stored slices
// are copied on the way in and out.
type MemoryBackend struct {
	mu      sync.RWMutex
	values  map[string][]byte
	streams map[string][][]byte
	closed  bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values:  make(map[string][]byte),
		streams: make(map[string][][]byte),
	}
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.values[key] = clone(value)
	return nil
}

func (m *MemoryBackend) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Append(ctx context.Context, stream string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.streams[stream] = append(m.streams[stream], clone(value))
	return nil
}

func (m *MemoryBackend) Range(ctx context.Context, stream string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	entries := m.streams[stream]
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = clone(e)
	}
	return out, nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Snapshot returns a copy of every stored value, for tests that need to
// compare whole-store state before and after an operation.
func (m *MemoryBackend) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.values))
	for k, v := range m.values {
		out[k] = clone(v)
	}
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
