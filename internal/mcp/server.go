package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/mcp/prompts"
	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
)

// Version is reported to clients during initialization.
var Version = "1.0.0"

const instructions = "Inspect property-management-system APIs (Guesty, Hospitable, OwnerRez, Hostaway). " +
	"Connect a platform, select an endpoint, add filters, execute, then page, slice or export the result. " +
	"Call the pms_tool_guide prompt for the full workflow."

// Server is the inspector's MCP server: the pms_* tools, the pmsinspect://
// resources and the workflow prompts over one session manager.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	builtinTools   bool
	builtinPrompts bool
	registrations  []func(*sdkmcp.Server)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the pms_* tools and the resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) { s.builtinTools = true }
}

// WithBuiltinPrompts enables the workflow prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) { s.builtinPrompts = true }
}

// WithCustomRegistration runs fn against the SDK server after the builtin
// registrations.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) { s.registrations = append(s.registrations, fn) }
}

// NewServer builds the server over deps. deps.Sessions is required.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	switch {
	case deps == nil:
		return nil, fmt.Errorf("deps is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("deps.Sessions is required")
	}

	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "pmsinspect-mcp", Version: Version},
		&sdkmcp.ServerOptions{Instructions: instructions},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.builtinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.builtinPrompts {
		prompts.Register(s.mcpServer, promptConfig(deps))
	}
	for _, fn := range s.registrations {
		fn(s.mcpServer)
	}
	return s, nil
}

// promptConfig describes the running server to the prompts so the guides
// mention only what is enabled.
func promptConfig(deps *tools.Deps) *prompts.Config {
	cfg := &prompts.Config{
		Mode:         string(deps.Sessions.Mode()),
		HistoryLimit: deps.Sessions.History().Limit(),
	}
	if deps.Config != nil {
		cfg.ExportEnabled = deps.Config.ExportDir != ""
	}
	return cfg
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
