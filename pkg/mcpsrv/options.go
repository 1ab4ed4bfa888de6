package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// serverConfig is assembled from options before anything is built.
type serverConfig struct {
	config     *config.Config
	httpClient *http.Client
	mockSeed   *uint64

	// overrides run in order on the final config, so they apply on top of
	// WithConfig regardless of option order.
	overrides []func(*config.Config)

	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// registrations run after the builtin tools, with Deps available.
	registrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

func override(fn func(*config.Config)) Option {
	return func(cfg *serverConfig) {
		cfg.overrides = append(cfg.overrides, fn)
	}
}

// WithConfig replaces the configuration loaded from the environment.
// A nil config is ignored.
func WithConfig(c *config.Config) Option {
	return func(cfg *serverConfig) {
		if c != nil {
			cfg.config = c
		}
	}
}

// WithMode sets the data mode, "mock" or "live".
func WithMode(mode string) Option {
	return override(func(c *config.Config) { c.Mode = mode })
}

// WithDefaultPlatform sets the platform selected at startup.
func WithDefaultPlatform(p platform.Key) Option {
	return override(func(c *config.Config) { c.DefaultPlatform = string(p) })
}

// WithSchemaFile serves endpoint catalogs from a YAML file instead of the
// built-in catalog.
func WithSchemaFile(path string) Option {
	return override(func(c *config.Config) { c.SchemaFile = path })
}

// WithExportDir enables pms_results_export write=true into dir.
func WithExportDir(dir string) Option {
	return override(func(c *config.Config) { c.ExportDir = dir })
}

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return override(func(c *config.Config) { c.LogLevel = level })
}

// WithLogFile logs to a rotating file instead of stderr.
func WithLogFile(path string) Option {
	return override(func(c *config.Config) { c.LogFile = path })
}

// WithHTTPClient sets the HTTP client for vendor APIs and remote schema
// catalogs, replacing the one built from HTTP_CLIENT_TIMEOUT_MS.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithMockSeed makes mock data and mock failures reproducible.
func WithMockSeed(seed uint64) Option {
	return func(cfg *serverConfig) {
		cfg.mockSeed = &seed
	}
}

// WithoutBuiltinTools disables the pms_* tools and resources.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts disables the builtin prompts.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a custom tool. The output type goes through the same
// zero-value schema check as the builtin tools:
//
//	type platformCount struct {
//	    Connected int `json:"connected"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "ping"}, func(ctx context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, platformCount, error) {
//	    return nil, platformCount{}, nil
//	})
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return WithDepsTool(tool, func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
		return handler
	})
}

// WithDepsTool registers a custom tool built from Deps, for tools that read
// sessions, results or history:
//
//	mcpsrv.WithDepsTool(&mcp.Tool{Name: "history_count"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, countOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, countOutput, error) {
//	            return nil, countOutput{Entries: d.History.Len()}, nil
//	        }
//	    })
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, d *Deps) {
			AddTool(srv, tool, builder(d))
		})
	}
}

// WithPrompt registers a custom prompt.
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template, e.g. one
// serving "pmsinspect://custom/{platform}".
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
