package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/climacomp/core/calendar"
	"github.com/huangsam/climacomp/core/forecast"
	"github.com/huangsam/climacomp/internal/contract"
	"github.com/huangsam/climacomp/internal/ingest"
	"github.com/huangsam/climacomp/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.RunConfig
}

// bucketResult is the answer of locate_bucket.
type bucketResult struct {
	Mode        string `json:"mode"`
	Day         int    `json:"day"`
	BucketStart int    `json:"bucket_start"`
	BucketIndex int    `json:"bucket_index"`
	NextStart   int    `json:"next_start,omitempty"`
}

// forecastLag is one lag of a compute_forecast answer.
type forecastLag struct {
	Lag         int                        `json:"lag"`
	Probability schema.ForecastProbability `json:"probability"`
	Total       float64                    `json:"total"`
	Dominant    string                     `json:"dominant"`
	GatedCells  int                        `json:"gated_cells"`
}

// forecastAnswer is one station of a compute_forecast answer.
type forecastAnswer struct {
	Station string        `json:"station"`
	Target  string        `json:"target"`
	Lags    []forecastLag `json:"lags"`
}

// modeFrom returns the requested interval mode, falling back to the configured one.
func (h *toolHandler) modeFrom(request mcp.CallToolRequest) (schema.IntervalMode, error) {
	mode := h.baseCfg.Mode
	if m := request.GetString("mode", ""); m != "" {
		mode = schema.IntervalMode(strings.ToLower(m))
	}
	if _, ok := schema.ValidIntervalModes[mode]; !ok {
		return mode, fmt.Errorf("invalid mode '%s'. must be trimester, 5days, 10days, 15days", mode)
	}
	return mode, nil
}

func (h *toolHandler) handleLocateBucket(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.modeFrom(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day := request.GetInt("day", 0)

	start, err := calendar.LocateBucket(mode, day)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot locate bucket: %v", err)), nil
	}
	idx, err := calendar.BucketIndex(mode, start)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot locate bucket: %v", err)), nil
	}
	res := bucketResult{Mode: string(mode), Day: day, BucketStart: start, BucketIndex: idx}
	if next, ok := calendar.NextBucketStart(mode, start); ok {
		res.NextStart = next
	}

	jsonData, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListPeriods(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.modeFrom(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	periods := calendar.Periods(mode)
	labels := make([]string, len(periods))
	for i, p := range periods {
		labels[i] = p.Label()
	}

	jsonData, _ := json.MarshalIndent(map[string]any{
		"mode":    string(mode),
		"count":   len(labels),
		"periods": labels,
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleComputeForecast(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.modeFrom(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc := request.GetString("document", "")
	if strings.TrimSpace(doc) == "" {
		return mcp.NewToolResultError("document is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Mode = mode
	cfg.SignificanceGating = request.GetBool("significance", h.baseCfg.SignificanceGating)

	inputs, err := ingest.ReadForecastDocs(strings.NewReader(doc))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid forecast document: %v", err)), nil
	}

	engine := forecast.NewEngine(cfg)
	answers := make([]forecastAnswer, 0, len(inputs))
	for _, input := range inputs {
		result, err := engine.Forecast(input)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
		}
		answer := forecastAnswer{Station: result.Station, Target: result.Target.Period().Label()}
		for _, li := range input.Lags {
			p := result.Lags[li.Lag]
			answer.Lags = append(answer.Lags, forecastLag{
				Lag:         int(li.Lag),
				Probability: p,
				Total:       p.Total(),
				Dominant:    contract.GetPlainLabel(forecast.Dominant(p)),
				GatedCells:  engine.GatedCells(li.Table),
			})
		}
		answers = append(answers, answer)
	}

	jsonData, _ := json.MarshalIndent(answers, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
