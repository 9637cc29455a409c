package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prperemyshlev/outreach-service/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Start the Model Context Protocol server over stdio for AI assistant integration.

The same tools are served over HTTP at /mcp by "serve" when MCP_API_KEY is set.
Logs go to stderr so stdout stays reserved for the protocol.

Example assistant configuration:
  {
    "mcpServers": {
      "outreach": {
        "command": "/path/to/outreach-service",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	infra, err := app.NewInfrastructure(cmd.Context(), *cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	defer func() { _ = infra.Shutdown(context.WithoutCancel(cmd.Context())) }()

	services, err := app.NewServices(cmd.Context(), infra, cfg)
	if err != nil {
		return err
	}

	server, err := services.MCPServer(infra.Logger())
	if err != nil {
		return err
	}

	return server.Run(cmd.Context())
}
