package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

// seriesTable is the name of the table for aligned series caching.
const seriesTable = "series_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetCacheDBFilePath returns the path to the SQLite DB file for the series cache.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the result store.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// InitStores initializes the global manager with the series cache and the result store.
// An empty backend leaves the matching store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, storeBackend schema.DatabaseBackend, storeConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var (
			seriesStore contract.CacheStore
			resultStore contract.ResultStore
			err         error
		)

		if cacheBackend != "" {
			seriesStore, err = NewCacheStore(seriesTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize series cache: %w", err)
				return
			}
		}

		if storeBackend != "" {
			resultStore, err = NewResultStore(storeBackend, storeConnStr)
			if err != nil {
				if seriesStore != nil {
					_ = seriesStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize result store: %w", err)
				return
			}
		}

		Manager.Lock()
		Manager.series = seriesStore
		Manager.results = resultStore
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.series != nil {
			_ = Manager.series.Close()
		}
		if Manager.results != nil {
			_ = Manager.results.Close()
		}
	})
}

// ClearCache drops the series cache. SQLite removes the whole database file.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, seriesTable)
}

// ClearStore drops every result store table. SQLite removes the whole database file.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, forecastsTable, lagRecordsTable, runsTable, migrationsTable)
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		for _, table := range tables {
			if err := clearSQLTable(driverName, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
