package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// HistoryListInput is the input for pms_history_list.
type HistoryListInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Only attempts on this platform"`
	Endpoint string `json:"endpoint,omitempty" jsonschema:"Only attempts against this endpoint path"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max entries to return (default: all retained)"`
}

// HistoryListOutput is the output for pms_history_list.
type HistoryListOutput struct {
	Entries  []types.QueryHistoryEntry `json:"entries,omitzero"`
	Total    int                       `json:"total"`
	Capacity int                       `json:"capacity"`
}

// ToolHistoryList lists query attempts, newest first.
func ToolHistoryList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input HistoryListInput) (*sdkmcp.CallToolResult, HistoryListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input HistoryListInput) (*sdkmcp.CallToolResult, HistoryListOutput, error) {
		var p platform.Key
		if input.Platform != "" {
			var err error
			if p, err = d.ResolvePlatform(input.Platform); err != nil {
				return nil, HistoryListOutput{}, err
			}
		}

		log := d.Sessions.History()
		entries := log.List(history.Filter{
			Platform: p,
			Endpoint: input.Endpoint,
			Limit:    input.Limit,
		})
		return nil, HistoryListOutput{
			Entries:  entries,
			Total:    log.Len(),
			Capacity: log.Limit(),
		}, nil
	}
}
