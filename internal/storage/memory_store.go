package storage

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory BlobStore.
type MemoryStore struct {
	mu               sync.RWMutex
	files            map[string]memFile
	conflictStrategy ConflictStrategy
}

type memFile struct {
	data    []byte
	mode    os.FileMode
	modTime time.Time
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]memFile),
	}
}

// SetConflictStrategy sets the conflict resolution strategy.
func (m *MemoryStore) SetConflictStrategy(strategy ConflictStrategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflictStrategy = strategy
}

// Write saves a copy of data.
func (m *MemoryStore) Write(p string, data []byte, mode os.FileMode) error {
	key, err := memKey(p)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[key]; exists && m.conflictStrategy == ConflictError {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}

	m.files[key] = memFile{
		data:    append([]byte{}, data...),
		mode:    mode,
		modTime: time.Now(),
	}
	return nil
}

// Read retrieves a copy of file contents.
func (m *MemoryStore) Read(p string) ([]byte, error) {
	key, err := memKey(p)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return append([]byte{}, f.data...), nil
}

// Delete removes a file.
func (m *MemoryStore) Delete(p string) error {
	key, err := memKey(p)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, key)
	return nil
}

// Exists checks if a file exists.
func (m *MemoryStore) Exists(p string) (bool, error) {
	key, err := memKey(p)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[key]
	return ok, nil
}

// Stat returns file information.
func (m *MemoryStore) Stat(p string) (FileInfo, error) {
	key, err := memKey(p)
	if err != nil {
		return FileInfo{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[key]
	if !ok {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	return FileInfo{
		Path:    p,
		Size:    int64(len(f.data)),
		Mode:    f.mode,
		ModTime: f.modTime,
	}, nil
}

func memKey(p string) (string, error) {
	if strings.ContainsRune(p, 0) || strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return path.Clean(strings.TrimPrefix(p, "/")), nil
}
