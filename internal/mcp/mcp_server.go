// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/climacomp/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the climacomp MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.RunConfig, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Climacomp Composite Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}
	modes := mcp.Enum("trimester", "5days", "10days", "15days")

	// --- 1. Tool: locate_bucket ---
	s.AddTool(mcp.NewTool("locate_bucket",
		mcp.WithDescription("Find the day bucket that contains a day of the month."),
		mcp.WithNumber("day", mcp.Description("Day of the month (1-31)."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Interval mode. Defaults to the configured mode."), modes),
	), h.handleLocateBucket)

	// --- 2. Tool: list_periods ---
	s.AddTool(mcp.NewTool("list_periods",
		mcp.WithDescription("List every analysis period of an interval mode in calendar order."),
		mcp.WithString("mode", mcp.Description("Interval mode. Defaults to the configured mode."), modes),
	), h.handleListPeriods)

	// --- 3. Tool: compute_forecast ---
	s.AddTool(mcp.NewTool("compute_forecast",
		mcp.WithDescription("Compute composite forecast probabilities from contingency tables and index frequencies."),
		mcp.WithString("document", mcp.Description("Forecast input as YAML. Several documents may be separated by '---'."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Interval mode the target is checked against."), modes),
		mcp.WithBoolean("significance", mcp.Description("Drop contingency cells that are not significant.")),
	), h.handleComputeForecast)

	return s
}

// StartMCPServer starts the climacomp MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.RunConfig, version string) error {
	s := NewMCPServer(baseCfg, version)
	return server.ServeStdio(s)
}
