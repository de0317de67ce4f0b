package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all scamcheck tools registered.
func NewMCPServer(backend Backend, version string) *server.MCPServer {
	s := server.NewMCPServer("scamcheck", version, server.WithToolCapabilities(false))
	h := NewHandlers(backend)

	s.AddTool(ToolListCategories, h.HandleListCategories)
	s.AddTool(ToolGetFlow, h.HandleGetFlow)
	s.AddTool(ToolAssess, h.HandleAssess)

	return s
}
