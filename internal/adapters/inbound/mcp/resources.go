package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/config"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/history"
)

// registerResources registers all licensekraft MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	// 1. licensekraft://config - effective configuration
	s.AddResource(
		mcplib.NewResource(
			"licensekraft://config",
			"Configuration",
			mcplib.WithResourceDescription("Effective verification configuration for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(projectPath),
	)

	// 2. licensekraft://history - past verification runs
	s.AddResource(
		mcplib.NewResource(
			"licensekraft://history",
			"Run History",
			mcplib.WithResourceDescription("Recorded verification runs, oldest first"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(projectPath),
	)
}

func handleConfigResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
		return jsonContents(request.Params.URI, cfg)
	}
}

func handleHistoryResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries, err := history.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		return jsonContents(request.Params.URI, entries)
	}
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
