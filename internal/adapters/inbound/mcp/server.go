package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewLicenseKraftMCPServer creates an MCP server with all licensekraft tools
// and resources registered. projectPath is the repository root to verify.
func NewLicenseKraftMCPServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"licensekraft",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
