// Package forecast turns historical contingency tables and current index
// frequencies into composite forecast probabilities.
package forecast

import (
	"fmt"

	"github.com/huangsam/climacomp/core/calendar"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/schema"
)

var (
	outcomes = []schema.Outcome{schema.Decrease, schema.NormalOutcome, schema.Exceed}
	terciles = []schema.Tercile{schema.Below, schema.NormalTercile, schema.Above}
)

// Engine computes forecast probabilities under one run configuration.
type Engine struct {
	cfg *contract.RunConfig
}

// NewEngine returns an Engine bound to the run configuration.
func NewEngine(cfg *contract.RunConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Included reports whether a cell takes part in the sum.
// Non-significant cells are dropped only while significance gating is on.
func (e *Engine) Included(cell schema.ContingencyCell) bool {
	return cell.Significant || !e.cfg.SignificanceGating
}

// Probability applies the law of total probability to one table.
// Percentages are rescaled to fractions. Excluded cells contribute 0 and the
// result is not renormalised, so the three values may sum to less than 1.
func (e *Engine) Probability(table schema.ContingencyTable, freq schema.IndexFrequency) schema.ForecastProbability {
	var sums [3]float64
	for _, o := range outcomes {
		for _, t := range terciles {
			cell := table[o][t]
			if !e.Included(cell) {
				continue
			}
			sums[o] += cell.Percent / 100 * freq.At(t)
		}
	}
	return schema.ForecastProbability{
		Decrease: sums[schema.Decrease],
		Normal:   sums[schema.NormalOutcome],
		Exceed:   sums[schema.Exceed],
	}
}

// GatedCells counts the cells of a table that Probability would drop.
func (e *Engine) GatedCells(table schema.ContingencyTable) int {
	n := 0
	for _, o := range outcomes {
		for _, t := range terciles {
			if !e.Included(table[o][t]) {
				n++
			}
		}
	}
	return n
}

// Forecast validates the target and computes every lag present in the input.
func (e *Engine) Forecast(input schema.ForecastInput) (schema.ForecastResult, error) {
	result := schema.ForecastResult{Station: input.Station, Target: input.Target}
	if err := calendar.ValidateTarget(e.cfg.Mode, input.Target); err != nil {
		return result, fmt.Errorf("station %s: %w", input.Station, err)
	}
	for _, li := range input.Lags {
		if !li.Lag.Valid() {
			return result, fmt.Errorf("station %s: invalid lag %d. must be 0, 1, 2", input.Station, int(li.Lag))
		}
		if result.Present[li.Lag] {
			return result, fmt.Errorf("station %s: lag %d given more than once", input.Station, int(li.Lag))
		}
		result.Lags[li.Lag] = e.Probability(li.Table, li.Frequency)
		result.Present[li.Lag] = true
	}
	return result, nil
}

// Dominant returns the most likely outcome. Ties resolve to normal.
func Dominant(p schema.ForecastProbability) schema.Outcome {
	switch {
	case p.Decrease > p.Normal && p.Decrease > p.Exceed:
		return schema.Decrease
	case p.Exceed > p.Normal && p.Exceed > p.Decrease:
		return schema.Exceed
	default:
		return schema.NormalOutcome
	}
}
