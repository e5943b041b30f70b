// Package session holds the unwrapped data key for the lifetime of an
// unlocked vault. The key lives in a memguard enclave: encrypted at rest
// in memory and only decrypted into locked, guarded pages while in use.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/TheMichaelB/pinvault/internal/models"
)

// ErrEmptyKey is returned by Put for a zero-length key.
var ErrEmptyKey = errors.New("session key is empty")

// Cache holds at most one key.
type Cache struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Put seals key into the cache, replacing any existing key.
// The caller's slice is wiped.
func (c *Cache) Put(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	enclave := memguard.NewEnclave(key)

	c.mu.Lock()
	c.enclave = enclave
	c.mu.Unlock()

	return nil
}

// Get opens the cached key. The caller must Destroy the returned buffer.
func (c *Cache) Get() (*memguard.LockedBuffer, error) {
	c.mu.RLock()
	enclave := c.enclave
	c.mu.RUnlock()

	if enclave == nil {
		return nil, models.ErrNoActiveSession
	}

	buf, err := enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("open session key: %w", err)
	}
	return buf, nil
}

// Use calls fn with the cached key. The key bytes are only valid inside fn.
func (c *Cache) Use(fn func(key []byte) error) error {
	buf, err := c.Get()
	if err != nil {
		return err
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}

// Active reports whether a key is cached.
func (c *Cache) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enclave != nil
}

// Clear drops the cached key.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.enclave = nil
	c.mu.Unlock()
}

// Purge destroys all memguard-managed memory in the process, including
// every cache. Call on shutdown.
func Purge() {
	memguard.Purge()
}
