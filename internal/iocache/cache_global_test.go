package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetStores(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	t.Cleanup(func() {
		CloseStores()
		Manager = &CacheStoreManager{}
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		resetStores(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		storePath := filepath.Join(dir, "store.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, storePath))
		assert.NotNil(t, Manager.GetSeriesStore())
		assert.NotNil(t, Manager.GetResultStore())

		// Repeated calls are no-ops.
		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, storePath))

		CloseStores()
		CloseStores()
		assert.FileExists(t, cachePath)
		assert.FileExists(t, storePath)
	})

	t.Run("empty backends", func(t *testing.T) {
		resetStores(t)
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetSeriesStore())
		assert.Nil(t, Manager.GetResultStore())
	})

	t.Run("none backends", func(t *testing.T) {
		resetStores(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetSeriesStore())
		assert.NotNil(t, Manager.GetResultStore())
	})

	t.Run("bad store backend", func(t *testing.T) {
		resetStores(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		err := InitStores(schema.SQLiteBackend, cachePath, schema.DatabaseBackend("oracle"), "")
		assert.ErrorContains(t, err, "failed to initialize result store")
		assert.Nil(t, Manager.GetSeriesStore())
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetStores(t)
	require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.NotNil(t, Manager.GetSeriesStore())
			assert.NotNil(t, Manager.GetResultStore())
		})
	}
	wg.Wait()
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(seriesTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.FileExists(t, path)

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing a missing file is fine.
	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearCache(schema.DatabaseBackend("oracle"), "", ""))
}

func TestClearStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := NewResultStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
}
