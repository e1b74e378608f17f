// Package iocache persists aligned series and run results across SQL backends.
package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

// CacheStoreImpl is a versioned key/value table. A nil db means caching is disabled.
type CacheStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.CacheStore = &CacheStoreImpl{} // Compile-time check

// NewCacheStore opens the backend and makes sure the cache table exists.
func NewCacheStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &CacheStoreImpl{tableName: tableName, backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetCacheDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	if _, err := db.Exec(cacheTableDDL(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &CacheStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

func cacheTableDDL(tableName string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				series_key VARCHAR(128) PRIMARY KEY,
				payload LONGBLOB NOT NULL,
				format_version INT NOT NULL,
				stored_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				series_key TEXT PRIMARY KEY,
				payload BYTEA NOT NULL,
				format_version INTEGER NOT NULL,
				stored_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				series_key TEXT PRIMARY KEY,
				payload BLOB NOT NULL,
				format_version INTEGER NOT NULL,
				stored_at INTEGER NOT NULL
			);
		`, quoted)
	}
}

// Get returns the payload, format version and unix timestamp stored under key.
// A missing key yields sql.ErrNoRows.
func (cs *CacheStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if cs.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	var (
		payload []byte
		version int
		ts      int64
	)
	query := fmt.Sprintf(`SELECT payload, format_version, stored_at FROM %s WHERE series_key = %s`,
		quoteTableName(cs.tableName, cs.backend), placeholders(cs.backend, 1))
	if err := cs.db.QueryRow(query, key).Scan(&payload, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return payload, version, ts, nil
}

// Set inserts or replaces the entry under key.
func (cs *CacheStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	if cs.db == nil {
		return nil
	}
	_, err := cs.db.Exec(cs.upsertQuery(), key, value, version, timestamp)
	return err
}

func (cs *CacheStoreImpl) upsertQuery() string {
	quoted := quoteTableName(cs.tableName, cs.backend)
	cols := "series_key, payload, format_version, stored_at"
	values := placeholders(cs.backend, 4)
	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, format_version = new.format_version, stored_at = new.stored_at`, quoted, cols, values)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (series_key) DO UPDATE SET payload = EXCLUDED.payload, format_version = EXCLUDED.format_version, stored_at = EXCLUDED.stored_at`, quoted, cols, values)
	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, quoted, cols, values)
	}
}

// Close closes the underlying DB connection.
func (cs *CacheStoreImpl) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}

// GetStatus reports entry counts, entry age and approximate table size.
func (cs *CacheStoreImpl) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(cs.backend),
		Connected: cs.db != nil,
	}
	if cs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(cs.tableName, cs.backend)
	row := cs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted))
	if err := row.Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var oldest, newest int64
	row = cs.db.QueryRow(fmt.Sprintf("SELECT MIN(stored_at), MAX(stored_at) FROM %s", quoted))
	if err := row.Scan(&oldest, &newest); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.OldestEntryTime = time.Unix(oldest, 0)
	status.LastEntryTime = time.Unix(newest, 0)
	status.TableSizeBytes = tableSizeBytes(cs.db, cs.backend, cs.connStr, cs.tableName, status.TotalEntries)

	return status, nil
}

// tableSizeBytes asks the backend catalog for the on-disk size of a table.
// When the catalog is unavailable it falls back to a per-row estimate.
func tableSizeBytes(db *sql.DB, backend schema.DatabaseBackend, connStr, tableName string, rows int) int64 {
	estimate := int64(rows) * 1000
	var size int64
	switch backend {
	case schema.SQLiteBackend:
		// The whole file: SQLite keeps no per-table size.
		err := db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size)
		if err != nil {
			return 0
		}
		return size
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		err = db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			cfg.DBName, tableName).Scan(&size)
		if err != nil {
			return estimate
		}
		return size
	case schema.PostgreSQLBackend:
		if err := db.QueryRow("SELECT pg_total_relation_size($1)", tableName).Scan(&size); err != nil {
			return estimate
		}
		return size
	default:
		return estimate
	}
}
