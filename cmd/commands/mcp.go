package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bim-rag/internal/mcp"
)

func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the model assistant as an MCP (Model Context Protocol) server on
stdio, exposing the ask_model tool.`,
		Example: `  # claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "bim": {"command": "bim-rag", "args": ["mcp", "--model", "/data/house.ifc"]}
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, closeStore, err := newRAG(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server := mcp.NewServer(r, version)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("model", cfg.Model.Path).Msg("MCP server starting on stdio")
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
