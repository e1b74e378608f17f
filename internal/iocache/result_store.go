package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

// Table names for run tracking.
const (
	runsTable       = "climacomp_runs"
	lagRecordsTable = "climacomp_lag_records"
	forecastsTable  = "climacomp_forecasts"
)

// ResultStoreImpl implements contract.ResultStore. A nil db means tracking is disabled.
type ResultStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.ResultStore = &ResultStoreImpl{} // Compile-time check

// NewResultStore opens the backend and creates the run tables when missing.
func NewResultStore(backend schema.DatabaseBackend, connStr string) (contract.ResultStore, error) {
	if backend == schema.NoneBackend {
		return &ResultStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	for _, table := range []string{runsTable, lagRecordsTable, forecastsTable} {
		if _, err := db.Exec(resultTableDDL(table, backend)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	return &ResultStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// resultTableDDL returns the CREATE TABLE statement of a result table.
// The statements match the first three embedded migrations.
func resultTableDDL(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)

	var (
		autoID, bigint, integer, double, text, key, timestamp, date string
	)
	switch backend {
	case schema.MySQLBackend:
		autoID, bigint, integer, double = "BIGINT AUTO_INCREMENT PRIMARY KEY", "BIGINT", "INT", "DOUBLE"
		text, key, timestamp, date = "TEXT", "VARCHAR(64)", "DATETIME(6)", "DATE"
	case schema.PostgreSQLBackend:
		autoID, bigint, integer, double = "BIGSERIAL PRIMARY KEY", "BIGINT", "INT", "DOUBLE PRECISION"
		text, key, timestamp, date = "TEXT", "TEXT", "TIMESTAMPTZ", "DATE"
	default: // SQLite
		autoID, bigint, integer, double = "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER", "INTEGER", "REAL"
		text, key, timestamp, date = "TEXT", "TEXT", "TEXT", "TEXT"
	}

	switch table {
	case runsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s,
				run_uuid %s NOT NULL,
				command %s NOT NULL,
				start_time %s NOT NULL,
				end_time %s,
				run_duration_ms %s,
				stations_processed %s NOT NULL DEFAULT 0,
				stations_failed %s NOT NULL DEFAULT 0,
				config_params %s
			);
		`, quoted, autoID, key, key, timestamp, timestamp, integer, integer, integer, text)
	case lagRecordsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				station %s NOT NULL,
				lag_index %s NOT NULL,
				period_label %s NOT NULL,
				period_date %s NOT NULL,
				mean_d %s,
				mean_i %s,
				PRIMARY KEY (run_id, station, lag_index, period_date)
			);
		`, quoted, bigint, key, integer, key, date, double, double)
	default: // forecastsTable
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				station %s NOT NULL,
				target_month %s NOT NULL,
				target_day %s NOT NULL,
				lag_index %s NOT NULL,
				p_decrease %s NOT NULL,
				p_normal %s NOT NULL,
				p_exceed %s NOT NULL,
				p_total %s NOT NULL,
				PRIMARY KEY (run_id, station, target_month, target_day, lag_index)
			);
		`, quoted, bigint, key, integer, integer, integer, double, double, double, double)
	}
}

// BeginRun records the start of a run and returns its ID.
func (rs *ResultStoreImpl) BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	args := []any{uuid.NewString(), command, formatTime(startTime, rs.backend), string(configJSON)}
	insert := fmt.Sprintf(`INSERT INTO %s (run_uuid, command, start_time, config_params) VALUES (%s)`,
		quoted, placeholders(rs.backend, len(args)))

	var runID int64
	if rs.backend == schema.PostgreSQLBackend {
		err = rs.db.QueryRow(insert+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var result sql.Result
		if result, err = rs.db.Exec(insert, args...); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the run with its end time, duration and station counts.
func (rs *ResultStoreImpl) EndRun(runID int64, endTime time.Time, processed, failed int) error {
	if rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	start := scanTime{backend: rs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(rs.backend, 1))
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	var update string
	if rs.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, stations_processed = $3, stations_failed = $4 WHERE run_id = $5`, quoted)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, stations_processed = ?, stations_failed = ? WHERE run_id = ?`, quoted)
	}
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, processed, failed, runID); err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

// RecordLagSeries stores every record of every lag in one transaction.
func (rs *ResultStoreImpl) RecordLagSeries(runID int64, station string, mode schema.IntervalMode, series schema.LagSeries) error {
	if rs.db == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf(`INSERT INTO %s (run_id, station, lag_index, period_label, period_date, mean_d, mean_i) VALUES (%s)`,
		quoteTableName(lagRecordsTable, rs.backend), placeholders(rs.backend, 7))
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare lag record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range schema.AllLags {
		for _, r := range series[l] {
			_, err := stmt.Exec(runID, station, int(l), r.Period(mode).Label(), formatTime(r.Date, rs.backend),
				nullableFloat(r.MeanD), nullableFloat(r.MeanI))
			if err != nil {
				return fmt.Errorf("failed to insert lag record %s %s: %w", l, r.Date.Format(time.DateOnly), err)
			}
		}
	}
	return tx.Commit()
}

// RecordForecast stores the probabilities of every lag present in the result.
// The lags are written in one transaction, so a failed insert leaves no rows behind.
func (rs *ResultStoreImpl) RecordForecast(runID int64, result schema.ForecastResult) error {
	if rs.db == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf(`INSERT INTO %s (run_id, station, target_month, target_day, lag_index, p_decrease, p_normal, p_exceed, p_total) VALUES (%s)`,
		quoteTableName(forecastsTable, rs.backend), placeholders(rs.backend, 9))
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range schema.AllLags {
		if !result.Present[l] {
			continue
		}
		p := result.Lags[l]
		_, err := stmt.Exec(runID, result.Station, result.Target.Month, result.Target.Day, int(l),
			p.Decrease, p.Normal, p.Exceed, p.Total())
		if err != nil {
			return fmt.Errorf("failed to insert forecast for %s %s: %w", result.Station, l, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *ResultStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns run counts, run times and row counts per table.
func (rs *ResultStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	for _, table := range []string{runsTable, lagRecordsTable, forecastsTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalLagRecords = int(status.TableSizes[lagRecordsTable])
	status.TotalForecasts = int(status.TableSizes[forecastsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	last := scanTime{backend: rs.backend}
	row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
	if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	if t, err := last.value(); err != nil {
		return status, err
	} else if t != nil {
		status.LastRunTime = *t
	}

	oldest := scanTime{backend: rs.backend}
	row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
	if err := row.Scan(oldest.dest()); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	if t, err := oldest.value(); err != nil {
		return status, err
	} else if t != nil {
		status.OldestRunTime = *t
	}

	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (rs *ResultStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, command, start_time, end_time, run_duration_ms,
		stations_processed, stations_failed, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			record     schema.RunRecord
			start, end = scanTime{backend: rs.backend}, scanTime{backend: rs.backend}
		)
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Command, start.dest(), end.dest(),
			&record.RunDurationMs, &record.StationsProcessed, &record.StationsFailed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllLagRecords retrieves all lag records ordered by run, station, lag and date.
func (rs *ResultStoreImpl) GetAllLagRecords() ([]schema.LagRecordRow, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, station, lag_index, period_label, period_date, mean_d, mean_i
		FROM %s ORDER BY run_id, station, lag_index, period_date`, quoteTableName(lagRecordsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lag records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LagRecordRow
	for rows.Next() {
		var (
			record schema.LagRecordRow
			date   = scanTime{backend: rs.backend}
		)
		if err := rows.Scan(&record.RunID, &record.Station, &record.Lag, &record.PeriodLabel, date.dest(),
			&record.MeanD, &record.MeanI); err != nil {
			return nil, fmt.Errorf("failed to scan lag record: %w", err)
		}
		d, err := date.value()
		if err != nil {
			return nil, err
		}
		if d != nil {
			record.PeriodDate = *d
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lag records: %w", err)
	}
	return results, nil
}

// GetAllForecasts retrieves all forecast rows ordered by run, station, target and lag.
func (rs *ResultStoreImpl) GetAllForecasts() ([]schema.ForecastRecordRow, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, station, target_month, target_day, lag_index, p_decrease, p_normal, p_exceed, p_total
		FROM %s ORDER BY run_id, station, target_month, target_day, lag_index`, quoteTableName(forecastsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ForecastRecordRow
	for rows.Next() {
		var r schema.ForecastRecordRow
		if err := rows.Scan(&r.RunID, &r.Station, &r.TargetMonth, &r.TargetDay, &r.Lag,
			&r.Decrease, &r.Normal, &r.Exceed, &r.Total); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecasts: %w", err)
	}
	return results, nil
}

func nullableFloat(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}
