package session_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/models"
	"github.com/TheMichaelB/pinvault/internal/session"
)

func TestCachePutGet(t *testing.T) {
	cache := session.NewCache()
	assert.False(t, cache.Active())

	key := bytes.Repeat([]byte{0x42}, 32)
	want := append([]byte(nil), key...)

	require.NoError(t, cache.Put(key))
	assert.True(t, cache.Active())

	// Caller's copy is wiped
	assert.Equal(t, make([]byte, 32), key)

	buf, err := cache.Get()
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, want, buf.Bytes())
}

func TestCacheEmpty(t *testing.T) {
	cache := session.NewCache()

	_, err := cache.Get()
	assert.ErrorIs(t, err, models.ErrNoActiveSession)

	err = cache.Use(func([]byte) error {
		t.Fatal("fn must not run without a key")
		return nil
	})
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
}

func TestCacheRejectsEmptyKey(t *testing.T) {
	cache := session.NewCache()

	assert.ErrorIs(t, cache.Put(nil), session.ErrEmptyKey)
	assert.ErrorIs(t, cache.Put([]byte{}), session.ErrEmptyKey)
	assert.False(t, cache.Active())
}

func TestCacheOverwrite(t *testing.T) {
	cache := session.NewCache()

	require.NoError(t, cache.Put(bytes.Repeat([]byte{1}, 32)))
	require.NoError(t, cache.Put(bytes.Repeat([]byte{2}, 32)))

	err := cache.Use(func(key []byte) error {
		assert.Equal(t, bytes.Repeat([]byte{2}, 32), key)
		return nil
	})
	require.NoError(t, err)
}

func TestCacheClear(t *testing.T) {
	cache := session.NewCache()
	require.NoError(t, cache.Put(bytes.Repeat([]byte{1}, 32)))

	cache.Clear()

	assert.False(t, cache.Active())
	_, err := cache.Get()
	assert.ErrorIs(t, err, models.ErrNoActiveSession)

	// Clearing twice is harmless
	cache.Clear()
}

func TestCacheUsePropagatesError(t *testing.T) {
	cache := session.NewCache()
	require.NoError(t, cache.Put(bytes.Repeat([]byte{1}, 32)))

	sentinel := errors.New("transform failed")
	err := cache.Use(func([]byte) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// Key survives a failed use
	assert.True(t, cache.Active())
}

func TestCacheConcurrentReaders(t *testing.T) {
	cache := session.NewCache()
	require.NoError(t, cache.Put(bytes.Repeat([]byte{7}, 32)))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := cache.Use(func(key []byte) error {
				assert.Len(t, key, 32)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
