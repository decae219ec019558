package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"flashgh/internal/logging"
	"flashgh/internal/syncer"

	"github.com/mark3labs/mcp-go/server"
)

const serverName = "flashgh"

// Server is the MCP server over one sync engine.
type Server struct {
	engine    *syncer.Engine
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
	tools     []server.ServerTool
}

// NewServer creates a server with every tool registered.
func NewServer(engine *syncer.Engine, logger *logging.AppLogger, version string) *Server {
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer(serverName, version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
			server.WithRecovery(),
		),
	}
	s.tools = s.buildTools()
	s.mcpServer.AddTools(s.tools...)
	s.logger.Debug("MCP tools registered", "count", len(s.tools))
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Tools returns the registered tools.
func (s *Server) Tools() []server.ServerTool {
	return s.tools
}

// Serve reads JSON-RPC requests from in and writes responses to out until in
// is closed or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Starting MCP server on stdio")

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog())

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}
