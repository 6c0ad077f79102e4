// Package storage is the local durable key/value store used for cart snapshots.
// Reads and writes are synchronous and best-effort; callers decide how to treat failures.
package storage

import "sync"

// Store gets and sets string blobs by key
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Memory is a process-local Store
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
