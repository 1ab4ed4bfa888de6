// Package mcpsrv provides an extensible MCP server for inspecting property
// management system (PMS) APIs.
//
// The server exposes the builtin pms_* tools, prompts and pmsinspect://
// resources for Guesty, Hospitable, OwnerRez and Hostaway. Users can extend
// it with custom tools, prompts, and resources using functional options.
//
// # Basic Usage
//
// Create a server configured from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Custom tools that need the session manager use WithDepsTool:
//
//	type CountInput struct{}
//
//	type CountOutput struct {
//	    Connected int `json:"connected"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_connected", Description: "Count connected platforms"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                var out CountOutput
//	                for _, s := range d.Sessions.Snapshot().Sessions {
//	                    if s.Connected() {
//	                        out.Connected++
//	                    }
//	                }
//	                return nil, out, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Settings come from environment variables (see internal/config). Options
// override the parts most often changed by embedders:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithMode("live"),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/pmsinspect-mcp.log"),
//	)
package mcpsrv
