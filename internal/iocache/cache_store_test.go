package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(seriesTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*CacheStoreImpl)
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newTestCacheStore(t)

	_, _, _, err := store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("k1", []byte("v1"), 1, 100))
	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(100), ts)

	// Set replaces an existing entry.
	require.NoError(t, store.Set("k1", []byte("v2"), 2, 200))
	value, version, ts, err = store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(200), ts)
}

func TestCacheStoreGetStatus(t *testing.T) {
	store := newTestCacheStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("y"), 1, 2000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(seriesTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	assert.NoError(t, store.Close())

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "none", status.Backend)
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, "")
	assert.ErrorContains(t, err, "invalid table name")

	_, err = NewCacheStore(seriesTable, schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestCacheUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (series_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: seriesTable, backend: tt.backend}
			assert.Contains(t, store.upsertQuery(), tt.want)
		})
	}
	pg := &CacheStoreImpl{tableName: seriesTable, backend: schema.PostgreSQLBackend}
	assert.Contains(t, pg.upsertQuery(), "$4")
}

func TestCacheTableDDL(t *testing.T) {
	assert.Contains(t, cacheTableDDL(seriesTable, schema.MySQLBackend), "LONGBLOB")
	assert.Contains(t, cacheTableDDL(seriesTable, schema.PostgreSQLBackend), "BYTEA")
	assert.Contains(t, cacheTableDDL(seriesTable, schema.SQLiteBackend), `"series_cache"`)
}
