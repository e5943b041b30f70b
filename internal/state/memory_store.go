package state

import (
	"sync"
)

// MemoryStore keeps records in memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates a volatile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Get returns a copy of the record.
func (m *MemoryStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, value...), nil
}

// Put stores a copy of value.
func (m *MemoryStore) Put(name string, value []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[name] = append([]byte{}, value...)
	return nil
}

// Delete removes a record.
func (m *MemoryStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, name)
	return nil
}

// List returns all record names.
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.records), nil
}

// Reset removes all records.
func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string][]byte)
	return nil
}

// Migrate copies all records into target.
func (m *MemoryStore) Migrate(target Store) error {
	m.mu.RLock()
	snapshot := make(map[string][]byte, len(m.records))
	for k, v := range m.records {
		snapshot[k] = v
	}
	m.mu.RUnlock()

	for _, name := range sortedKeys(snapshot) {
		if err := target.Put(name, snapshot[name]); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
