// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAlignment prints the per-station alignment summaries using the configured output format.
func (ow *OutWriter) WriteAlignment(summaries []schema.StationSummary, cfg *contract.RunConfig, duration time.Duration) error {
	return WriteAlignmentResults(summaries, cfg, duration)
}

// WriteForecasts prints forecast probabilities using the configured output format.
func (ow *OutWriter) WriteForecasts(results []schema.ForecastResult, cfg *contract.RunConfig, duration time.Duration) error {
	return WriteForecastResults(results, cfg, duration)
}

// WritePeriods prints the analysis periods of the configured mode.
func (ow *OutWriter) WritePeriods(cfg *contract.RunConfig) error {
	return WritePeriods(cfg)
}

// WriteReports writes the delimited per-period report files of one station.
func (ow *OutWriter) WriteReports(cfg *contract.RunConfig, station string, reports map[schema.Lag]map[schema.Period][]schema.LagRecord) (int, error) {
	return WriteLagReports(cfg, station, reports)
}
