package iocache

import (
	"sync"

	"github.com/huangsam/climacomp/internal/contract"
)

// CacheStoreManager holds the series cache and the result store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	series       contract.CacheStore
	results      contract.ResultStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetSeriesStore returns the aligned series cache, or nil when caching is off.
func (mgr *CacheStoreManager) GetSeriesStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.series
}

// GetResultStore returns the run result store, or nil when tracking is off.
func (mgr *CacheStoreManager) GetResultStore() contract.ResultStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.results
}
