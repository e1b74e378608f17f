package schema

import "time"

// CacheStatus represents the status of the series cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// StoreStatus represents the status of the result store.
type StoreStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalRuns       int              `json:"total_runs"`
	LastRunID       int64            `json:"last_run_id"`
	LastRunTime     time.Time        `json:"last_run_time"`
	OldestRunTime   time.Time        `json:"oldest_run_time"`
	TotalLagRecords int              `json:"total_lag_records"`
	TotalForecasts  int              `json:"total_forecasts"`
	TableSizes      map[string]int64 `json:"table_sizes"`
}
