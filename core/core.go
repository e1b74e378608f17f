// Package core orchestrates alignment and forecast runs over many stations.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/metrics"
	"github.com/huangsam/climacomp/internal/outwriter"
	"github.com/rs/zerolog/log"
)

// Command names recorded with each run.
const (
	alignCommand    = "align"
	forecastCommand = "forecast"
)

// ExecuteCalendar prints the analysis periods of the configured mode.
func ExecuteCalendar(_ context.Context, cfg *contract.RunConfig) error {
	return outwriter.NewOutWriter().WritePeriods(cfg)
}

// runPool processes items with cfg.Workers goroutines and returns the results
// in input order.
func runPool[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) R) []R {
	type job struct {
		idx  int
		item T
	}
	type result struct {
		idx int
		out R
	}

	jobCh := make(chan job, len(items))
	resultCh := make(chan result, len(items))
	var wg sync.WaitGroup

	for range max(workers, 1) {
		wg.Go(func() {
			for j := range jobCh {
				resultCh <- result{idx: j.idx, out: fn(ctx, j.item)}
			}
		})
	}

	for i, item := range items {
		jobCh <- job{idx: i, item: item}
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	results := make([]R, len(items))
	for r := range resultCh {
		results[r.idx] = r.out
	}
	return results
}

// beginRun opens a tracked run when a result store is configured.
// A zero ID means the run is not tracked.
func beginRun(mgr contract.CacheManager, command string, cfg *contract.RunConfig) (contract.ResultStore, int64) {
	store := resultStore(mgr)
	if store == nil {
		return nil, 0
	}
	runID, err := store.BeginRun(command, time.Now(), cfg.ConfigParams())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return nil, 0
	}
	return store, runID
}

// endRun finalizes a tracked run.
func endRun(store contract.ResultStore, runID int64, processed, failed int) {
	if store == nil || runID == 0 {
		return
	}
	if err := store.EndRun(runID, time.Now(), processed, failed); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

func resultStore(mgr contract.CacheManager) contract.ResultStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetResultStore()
}

func seriesStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetSeriesStore()
}

// flushMetrics writes the metrics textfile when one is configured.
func flushMetrics(cfg *contract.RunConfig) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Failed to write metrics textfile", err)
		return
	}
	log.Debug().Str("file", cfg.MetricsFile).Msg("Wrote metrics textfile")
}

// stationContext applies the per-station deadline.
func stationContext(ctx context.Context, cfg *contract.RunConfig) (context.Context, context.CancelFunc) {
	if cfg.StationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.StationTimeout)
}
