package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/climacomp/core/lag"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/ingest"
	"github.com/huangsam/climacomp/internal/metrics"
	"github.com/huangsam/climacomp/internal/outwriter"
	"github.com/huangsam/climacomp/schema"
	"github.com/rs/zerolog/log"
)

// alignOutcome is what one worker reports for one station.
type alignOutcome struct {
	summary schema.StationSummary
	err     error
}

// ExecuteAlign aligns every station of the manifest, writes the optional report
// files, records the series and prints a per-station summary.
// A station that fails is logged and counted; the run fails only when every station does.
func ExecuteAlign(ctx context.Context, cfg *contract.RunConfig, stations []ingest.StationSpec, mgr contract.CacheManager) error {
	start := time.Now()
	if len(stations) == 0 {
		return errors.New("no stations to align")
	}

	log.Info().
		Int("stations", len(stations)).
		Str("mode", string(cfg.Mode)).
		Int("workers", cfg.Workers).
		Msg("Starting alignment")

	store, runID := beginRun(mgr, alignCommand, cfg)
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}

	outcomes := runPool(ctx, cfg.Workers, stations, func(ctx context.Context, spec ingest.StationSpec) alignOutcome {
		began := time.Now()
		summary, err := alignStation(ctx, cfg, spec, mgr)
		metrics.ObserveStation(alignCommand, err, time.Since(began))
		return alignOutcome{summary: summary, err: err}
	})

	summaries := make([]schema.StationSummary, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			contract.LogWarn("Station skipped", o.err)
			continue
		}
		summaries = append(summaries, o.summary)
	}

	endRun(store, runID, len(summaries), failed)
	flushMetrics(cfg)

	if len(summaries) == 0 {
		return fmt.Errorf("all %d stations failed to align", failed)
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("aligned", len(summaries)).Msg("Some stations were skipped")
	}
	return outwriter.NewOutWriter().WriteAlignment(summaries, cfg, time.Since(start))
}

// alignStation loads, aligns, reports and records one station.
func alignStation(ctx context.Context, cfg *contract.RunConfig, spec ingest.StationSpec, mgr contract.CacheManager) (schema.StationSummary, error) {
	ctx, cancel := stationContext(ctx, cfg)
	defer cancel()

	station, err := ingest.LoadStation(spec, cfg.NullTokens)
	if err != nil {
		return schema.StationSummary{}, err
	}

	aligner := lag.NewAligner(cfg)
	series, cached, err := cachedAlign(ctx, cfg, aligner, station, seriesStore(mgr))
	if err != nil {
		return schema.StationSummary{}, err
	}

	summary := summarize(station.Code, series)
	summary.Cached = cached
	metrics.CountNullRecords(series)

	if cfg.Reports {
		n, err := outwriter.NewOutWriter().WriteReports(cfg, station.Code, aligner.Reports(series))
		if err != nil {
			return summary, fmt.Errorf("station %s: %w", station.Code, err)
		}
		summary.ReportFiles = n
	}

	if runID, ok := getRunID(ctx); ok {
		if store := resultStore(mgr); store != nil {
			if err := store.RecordLagSeries(runID, station.Code, cfg.Mode, series); err != nil {
				contract.LogWarn("Run tracking failed for station "+station.Code, err)
			}
		}
	}

	log.Debug().Str("station", station.Code).Int("records", summary.Records).Bool("cached", cached).Msg("Aligned station")
	return summary, nil
}

// summarize counts the records of a series and finds the years it spans.
func summarize(code string, series schema.LagSeries) schema.StationSummary {
	summary := schema.StationSummary{Station: code, Series: series}
	for _, l := range schema.AllLags {
		records := series[l]
		if len(records) == 0 {
			continue
		}
		first, last := records[0].Date.Year(), records[len(records)-1].Date.Year()
		if summary.StartYear == 0 || first < summary.StartYear {
			summary.StartYear = first
		}
		summary.EndYear = max(summary.EndYear, last)
		summary.Records += len(records)
		for _, r := range records {
			if !r.MeanD.Valid || !r.MeanI.Valid {
				summary.NullRecords++
			}
		}
	}
	return summary
}
