package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by a MemoryBackend with failures switched on
var ErrInjected = errors.New("injected backend failure")

// MemoryBackend keeps values in process memory. It backs tests and
// STORE_BACKEND=memory, and can simulate an unavailable device store.
type MemoryBackend struct {
	mu         sync.RWMutex
	data       map[string]string
	failReads  bool
	failWrites bool
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string]string{}}
}

// SetFailures makes subsequent reads and/or writes fail with ErrInjected
func (m *MemoryBackend) SetFailures(reads, writes bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReads = reads
	m.failWrites = writes
}

// Raw returns the stored string for key, bypassing the store
func (m *MemoryBackend) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Put writes a raw string for key, bypassing the store
func (m *MemoryBackend) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryBackend) Read(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failReads {
		return "", false, ErrInjected
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Write(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
