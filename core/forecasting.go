package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/climacomp/core/forecast"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/metrics"
	"github.com/huangsam/climacomp/internal/outwriter"
	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog/log"
)

// forecastOutcome is what one worker reports for one forecast input.
type forecastOutcome struct {
	result schema.ForecastResult
	err    error
}

// ExecuteForecast computes the composite probabilities of every input, records
// them and prints one row per station, target and lag.
func ExecuteForecast(ctx context.Context, cfg *contract.RunConfig, inputs []schema.ForecastInput, mgr contract.CacheManager) error {
	start := time.Now()
	if len(inputs) == 0 {
		return errors.New("no forecast inputs")
	}

	log.Info().
		Int("inputs", len(inputs)).
		Str("mode", string(cfg.Mode)).
		Bool("significance", cfg.SignificanceGating).
		Msg("Starting forecast")

	store, runID := beginRun(mgr, forecastCommand, cfg)
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	engine := forecast.NewEngine(cfg)

	outcomes := runPool(ctx, cfg.Workers, inputs, func(ctx context.Context, input schema.ForecastInput) forecastOutcome {
		began := time.Now()
		result, err := forecastStation(ctx, cfg, engine, input, mgr)
		metrics.ObserveStation(forecastCommand, err, time.Since(began))
		return forecastOutcome{result: result, err: err}
	})

	results := make([]schema.ForecastResult, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			contract.LogWarn("Forecast skipped", o.err)
			continue
		}
		results = append(results, o.result)
	}

	endRun(store, runID, len(results), failed)
	flushMetrics(cfg)

	if len(results) == 0 {
		return fmt.Errorf("all %d forecasts failed", failed)
	}
	return outwriter.NewOutWriter().WriteForecasts(results, cfg, time.Since(start))
}

// forecastStation runs the engine for one input and records the result.
func forecastStation(ctx context.Context, cfg *contract.RunConfig, engine *forecast.Engine, input schema.ForecastInput, mgr contract.CacheManager) (schema.ForecastResult, error) {
	ctx, cancel := stationContext(ctx, cfg)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return schema.ForecastResult{}, fmt.Errorf("station %s: %w", input.Station, err)
	}

	result, err := engine.Forecast(input)
	if err != nil {
		return result, err
	}
	for _, li := range input.Lags {
		metrics.GatedCells.Add(float64(engine.GatedCells(li.Table)))
	}

	if runID, ok := getRunID(ctx); ok {
		if store := resultStore(mgr); store != nil {
			if err := store.RecordForecast(runID, result); err != nil {
				contract.LogWarn("Run tracking failed for station "+input.Station, err)
			}
		}
	}
	return result, nil
}
