// Package kvstore defines the flat string-keyed storage slot that record
// stores persist into. In the browser this is window.localStorage.
package kvstore

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned when the backing medium cannot be reached,
// e.g. the browser implementation in a non-WASM build.
var ErrUnavailable = errors.New("kvstore: storage unavailable")

// Storage mirrors the localStorage API: one string value per key.
type Storage interface {
	// GetItem returns the value under key. ok is false when the key is absent.
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Memory is a map-backed Storage.
// Thread-safe for concurrent access from WASM callbacks.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]string),
	}
}

// GetItem retrieves the value stored under key.
func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key, overwriting any previous value.
func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

var _ Storage = (*Memory)(nil)
