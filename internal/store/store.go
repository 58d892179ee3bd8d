// Package store keeps small persisted blobs by integer key.
package store

import "sync"

// Store is a persisted key/value blob service
type Store interface {
	// Load returns the blob stored under key and whether it exists
	Load(key uint32) ([]byte, bool, error)
	Save(key uint32, value []byte) error
}

// Memory is a map-backed Store
type Memory struct {
	mu     sync.Mutex
	values map[uint32][]byte
	writes int
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[uint32][]byte)}
}

func (m *Memory) Load(key uint32) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Save(key uint32, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes returns the number of Save calls
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Keys of the blobs the face persists
const (
	KeyConfig uint32 = 0x5772
	KeyChrono        = KeyConfig + 0x100
)
