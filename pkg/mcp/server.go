package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// Server exposes player and group control as MCP tools
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
	validator  *schema.Validator
}

// NewServer creates a new MCP server backed by controller. A nil validator
// leaves schema checks to the controller.
func NewServer(controller device.Controller, validator *schema.Validator) *Server {
	s := &Server{
		controller: controller,
		validator:  validator,
	}

	s.mcpServer = server.NewMCPServer(
		"heosdial",
		Version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// MCPServer returns the underlying server, for transports other than stdio.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
