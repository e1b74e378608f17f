package cmd

import (
	"github.com/huangsam/climacomp/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the climacomp MCP server",
	Long:  `Launch an MCP server on stdio that exposes bucket lookup, period listing and forecast computation as tools.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		// Logs go to stderr, stdout carries the protocol.
		return configSetup()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, version)
	},
}
