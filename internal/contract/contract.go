// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/climacomp/schema"
)

// CacheManager defines the interface for managing the stores.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	GetSeriesStore() CacheStore
	GetResultStore() ResultStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// ResultStore defines the interface for tracking runs and storing their results.
type ResultStore interface {
	// BeginRun creates a new run and returns its ID
	BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, processed, failed int) error

	// RecordLagSeries stores the aligned records of one station
	RecordLagSeries(runID int64, station string, mode schema.IntervalMode, series schema.LagSeries) error

	// RecordForecast stores the per-lag probabilities of one forecast
	RecordForecast(runID int64, result schema.ForecastResult) error

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// GetAllRuns retrieves every tracked run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllLagRecords retrieves every stored lag record
	GetAllLagRecords() ([]schema.LagRecordRow, error)

	// GetAllForecasts retrieves every stored forecast probability
	GetAllForecasts() ([]schema.ForecastRecordRow, error)

	// Close closes the underlying connection
	Close() error
}
