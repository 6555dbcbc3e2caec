package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sourcemark/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the content index and usage scans over MCP",
	Long: `Serve the content index, usage scans and caption overlays to MCP
clients. Speaks JSON-RPC over stdio unless --http is given.

Examples:
  sourcemark mcp serve
  sourcemark mcp serve --http 127.0.0.1:8090

Client configuration for stdio:
  {
    "mcpServers": {
      "sourcemark": {
        "command": "/path/to/sourcemark",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Content: contentService,
		Usage:   usageService,
		Index:   indexService,
		Assets:  assetService,
		Overlay: overlayService,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr == "" {
		return server.Run(ctx)
	}
	cmd.PrintErrf("MCP server listening on %s\n", mcpHTTPAddr)
	return server.RunHTTP(ctx, mcpHTTPAddr)
}
