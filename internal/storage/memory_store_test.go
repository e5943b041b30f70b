package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/storage"
)

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore()

	data := []byte("payload")
	require.NoError(t, store.Write("/dir/file.enc", data, 0600))

	// Caller mutation does not leak into the store
	data[0] = 'X'

	got, err := store.Read("dir/file.enc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	got[0] = 'Y'
	again, err := store.Read("dir/file.enc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)

	info, err := store.Stat("dir/file.enc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)

	exists, err := store.Exists("dir/file.enc")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete("dir/file.enc"))
	_, err = store.Read("dir/file.enc")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Read("")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestMemoryStoreConflictError(t *testing.T) {
	store := storage.NewMemoryStore()
	store.SetConflictStrategy(storage.ConflictError)

	require.NoError(t, store.Write("a", []byte("1"), 0600))
	assert.ErrorIs(t, store.Write("a", []byte("2"), 0600), storage.ErrExists)
}
