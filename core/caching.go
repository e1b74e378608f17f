package core

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash"
	"math"
	"time"

	"github.com/huangsam/climacomp/core/lag"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/metrics"
	"github.com/huangsam/climacomp/schema"
)

// currentCacheVersion defines the version of the cached series encoding
const currentCacheVersion = 1

// cacheMaxAge bounds how long a cached series is trusted
const cacheMaxAge = 7 * 24 * time.Hour

// cachedAlign returns the aligned series of a station, reusing a cached copy
// when the inputs and settings are unchanged.
func cachedAlign(ctx context.Context, cfg *contract.RunConfig, aligner *lag.Aligner, station schema.Station, store contract.CacheStore) (schema.LagSeries, bool, error) {
	if store == nil {
		series, err := aligner.Align(ctx, station)
		return series, false, err
	}

	key := generateCacheKey(cfg, station)

	// Check for cache hit
	if series, ok := checkCacheHit(store, key); ok {
		metrics.CacheResult(true)
		return series, true, nil
	}
	metrics.CacheResult(false)

	// Cache miss: compute and store
	series, err := computeAndStore(ctx, aligner, station, store, key)
	return series, false, err
}

// checkCacheHit attempts to retrieve and validate a cached series
func checkCacheHit(store contract.CacheStore, key string) (schema.LagSeries, bool) {
	var series schema.LagSeries
	data, version, ts, err := store.Get(key)
	if err != nil {
		return series, false
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return series, false
	}
	if err := json.Unmarshal(data, &series); err != nil {
		return schema.LagSeries{}, false
	}
	return series, true
}

// computeAndStore aligns the station and stores the series in the cache
func computeAndStore(ctx context.Context, aligner *lag.Aligner, station schema.Station, store contract.CacheStore, key string) (schema.LagSeries, error) {
	series, err := aligner.Align(ctx, station)
	if err != nil {
		return series, err
	}
	if data, err := json.Marshal(series); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache aligned series for "+station.Code, err)
		}
	}
	return series, nil
}

// generateCacheKey hashes the raw series of a station together with the
// settings that change its alignment
func generateCacheKey(cfg *contract.RunConfig, station schema.Station) string {
	h := sha256.New()
	_, _ = h.Write([]byte(cfg.Fingerprint()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(station.Code))
	_, _ = h.Write([]byte{0, byte(station.State)})
	hashSeries(h, station.D)
	hashSeries(h, station.I)
	return hex.EncodeToString(h.Sum(nil))
}

func hashSeries(h hash.Hash, s schema.Series) {
	_, _ = h.Write([]byte(string(s.Kind) + "|" + string(s.Frequency) + "|"))
	buf := make([]byte, 0, 17)
	for _, p := range s.Points {
		buf = buf[:0]
		buf = binary.BigEndian.AppendUint64(buf, uint64(p.Date.Unix()))
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(p.Value))
		if p.Valid {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		_, _ = h.Write(buf)
	}
}
