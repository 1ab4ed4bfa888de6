package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/internal/logging"
	"github.com/usestring/pmsinspect-mcp/internal/mcp"
	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/internal/query"
	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/client"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// defaultTimeout bounds vendor calls when HTTP_CLIENT_TIMEOUT_MS is zero.
const defaultTimeout = 10 * time.Second

// Server is the PMS inspector MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates the inspector server with the builtin pms_* tools,
// resources and prompts. Configuration comes from the environment unless
// WithConfig supplies one; the remaining options override single settings
// or add custom tools.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load()
	}
	for _, fn := range cfg.overrides {
		fn(cfg.config)
	}
	c := cfg.config

	logCleanup, err := logging.Setup(logging.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		FilePath:   c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	deps, err := buildDeps(cfg)
	if err != nil {
		_ = logCleanup()
		return nil, err
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, register := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			register(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(&tools.Deps{
		Sessions: deps.Sessions,
		Query:    deps.Query,
		Config:   deps.Config,
	}, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("pmsinspect server ready",
		slog.String("mode", string(deps.Sessions.Mode())),
		slog.String("platform", string(deps.Sessions.Selected())),
	)

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// buildDeps wires the session manager and its collaborators from cfg.
func buildDeps(cfg *serverConfig) (*Deps, error) {
	c := cfg.config

	mode, err := session.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		timeout := c.HTTPClientTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	provider, err := schemaProvider(c, mode, httpClient)
	if err != nil {
		return nil, err
	}
	cached, err := schema.NewCached(provider, c.SchemaCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}

	log := history.New(c.HistoryLimit)

	gen := mock.NewGenerator(nil, nil)
	if cfg.mockSeed != nil {
		gen = mock.NewSeededGenerator(*cfg.mockSeed, nil)
	}
	runner := mock.NewRunner(
		mock.WithGenerator(gen),
		mock.WithDelay(c.MockDelay),
		mock.WithDecider(mock.RandomDecider(gen, c.MockFailureRate)),
	)

	defaultPlatform, err := platform.Parse(c.DefaultPlatform)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(session.Options{
		Mode:               mode,
		DefaultPlatform:    defaultPlatform,
		DefaultEnvironment: c.DefaultEnvironment,
		NewClient:          clientFactory(c, httpClient, cached),
		Schema:             cached,
		Cache:              cached,
		History:            log,
		Mock:               runner,
	})

	return &Deps{
		Sessions: sessions,
		History:  log,
		Schema:   cached,
		Query:    query.NewEngine(),
		Config:   c,
	}, nil
}

// schemaProvider picks the endpoint catalog source: a YAML file, a remote
// URL template, or the built-in catalog for the mode.
func schemaProvider(c *config.Config, mode session.Mode, httpClient *http.Client) (schema.Provider, error) {
	switch {
	case c.SchemaFile != "":
		f, err := schema.LoadFile(c.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema file: %w", err)
		}
		slog.Info("using schema file", slog.String("path", f.Path()))
		return f, nil
	case c.SchemaURL != "":
		slog.Info("using remote schema catalog", slog.String("url", c.SchemaURL))
		return schema.NewRemote(c.SchemaURL, schema.WithRemoteHTTPClient(httpClient)), nil
	case mode == session.ModeLive:
		return schema.NewStatic(schema.VendorCatalog()), nil
	default:
		return schema.NewStatic(schema.DemoCatalog()), nil
	}
}

func clientFactory(c *config.Config, httpClient *http.Client, provider schema.Provider) session.ClientFactory {
	return func(p platform.Key, token string) *client.Client {
		opts := []client.Option{
			client.WithHTTPClient(httpClient),
			client.WithSchemaProvider(provider),
		}
		if base, ok := c.BaseURLs[p]; ok {
			opts = append(opts, client.WithBaseURL(base))
		}
		if c.RateLimitRPS > 0 {
			opts = append(opts, client.WithRateLimit(c.RateLimitRPS, c.RateLimitBurst))
		}
		return client.New(p, token, opts...)
	}
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cancels any query in flight and cleans up server resources.
func (s *Server) Close() error {
	s.deps.Sessions.CancelAll()
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
