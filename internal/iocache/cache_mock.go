package iocache

import (
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetSeriesStore implements the CacheManager interface.
func (m *MockCacheManager) GetSeriesStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetResultStore implements the CacheManager interface.
func (m *MockCacheManager) GetResultStore() contract.ResultStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ResultStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockResultStore is a mock implementation of ResultStore for testing.
type MockResultStore struct {
	mock.Mock
}

var _ contract.ResultStore = &MockResultStore{} // Compile-time check

// BeginRun implements the ResultStore interface.
func (m *MockResultStore) BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(command, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the ResultStore interface.
func (m *MockResultStore) EndRun(runID int64, endTime time.Time, processed, failed int) error {
	args := m.Called(runID, endTime, processed, failed)
	return args.Error(0)
}

// RecordLagSeries implements the ResultStore interface.
func (m *MockResultStore) RecordLagSeries(runID int64, station string, mode schema.IntervalMode, series schema.LagSeries) error {
	args := m.Called(runID, station, mode, series)
	return args.Error(0)
}

// RecordForecast implements the ResultStore interface.
func (m *MockResultStore) RecordForecast(runID int64, result schema.ForecastResult) error {
	args := m.Called(runID, result)
	return args.Error(0)
}

// GetStatus implements the ResultStore interface.
func (m *MockResultStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// GetAllRuns implements the ResultStore interface.
func (m *MockResultStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllLagRecords implements the ResultStore interface.
func (m *MockResultStore) GetAllLagRecords() ([]schema.LagRecordRow, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.LagRecordRow)
	return rows, args.Error(1)
}

// GetAllForecasts implements the ResultStore interface.
func (m *MockResultStore) GetAllForecasts() ([]schema.ForecastRecordRow, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.ForecastRecordRow)
	return rows, args.Error(1)
}

// Close implements the ResultStore interface.
func (m *MockResultStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
