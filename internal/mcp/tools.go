// Package mcp exposes question answering as a Model Context Protocol tool.
package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"bim-rag/internal/models"
	"bim-rag/internal/rag"
)

const AskToolName = "ask_model"

// Answerer answers one question about the loaded model
type Answerer interface {
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
}

// Handlers holds the tool implementations
type Handlers struct {
	rag Answerer
}

// NewServer creates an MCP server with the ask_model tool registered
func NewServer(answerer Answerer, version string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer("BIM model assistant", version)
	RegisterTools(server, answerer)
	return server
}

// RegisterTools adds every tool to server
func RegisterTools(server *mcpserver.MCPServer, answerer Answerer) *Handlers {
	handlers := &Handlers{rag: answerer}

	server.AddTool(mcp.Tool{
		Name:        AskToolName,
		Description: "Answer a question about the loaded building model. Counts, surface areas and storey listings are computed from the model, other questions are answered from retrieved model fragments.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question in English or Polish, e.g. \"How many walls are there?\" or \"powierzchnia ścian\"",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskModel)

	return handlers
}

// AskModel handles the ask_model tool
func (h *Handlers) AskModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	resp, err := h.rag.Query(ctx, question)
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return mcp.NewToolResultError("Brak question"), nil
	}
	if err != nil {
		log.Error().Err(err).Msg("Error answering tool call")
		return mcp.NewToolResultError("failed to answer: " + err.Error()), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}
