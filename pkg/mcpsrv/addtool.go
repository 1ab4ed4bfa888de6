package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
)

// AddTool registers a tool the way the builtin pms_* tools are registered.
// It panics at registration when Out would not match its own output schema:
// a slice field without omitzero (nil marshals as null) or a field that
// marshals itself, such as a *types.Record. Pass records through
// types.RecordsToAny first.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
