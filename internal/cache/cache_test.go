package cache

import (
	"context"
	"testing"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := New(Config{
		Context: context.Background(),
		Logger:  logger.NewTestLogger(),
		Dir:     dir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t, "")

	found, _, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("k", "SELECT 1"))
	found, value, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "SELECT 1", value)

	require.NoError(t, store.Set("k", "SELECT 2"))
	_, value, err = store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", value)
}

func TestStoreDeleteKey(t *testing.T) {
	store := newTestStore(t, "")
	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))

	require.NoError(t, store.DeleteKey("a", "never-existed"))

	found, _, err := store.Get("a")
	require.NoError(t, err)
	assert.False(t, found)
	found, _, err = store.Get("b")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStorePersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)
	require.NoError(t, store.Set("k", "SELECT 1"))
	require.NoError(t, store.Close())

	reopened := newTestStore(t, dir)
	found, value, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "SELECT 1", value)
}

func TestStoreCloseTwice(t *testing.T) {
	store := newTestStore(t, "")
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
