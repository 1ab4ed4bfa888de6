package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// QueryExecuteInput is the input for pms_query_execute.
type QueryExecuteInput struct {
	Platform   string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Text       string `json:"text,omitempty" jsonschema:"Query text to run; replaces the workspace query text first"`
	MaxRecords int    `json:"max_records,omitempty" jsonschema:"Records to include inline (default: 50). The full result stays available via pms_results_get"`
}

// QueryExecuteOutput is the output for pms_query_execute.
type QueryExecuteOutput struct {
	Query      string                  `json:"query"`
	Result     *ResultView             `json:"result,omitempty"`
	Error      *types.QueryError       `json:"error,omitempty"`
	History    types.QueryHistoryEntry `json:"history"`
	Superseded bool                    `json:"superseded,omitempty"`
	Summary    string                  `json:"summary"`
	Resource   *types.ResourceRef      `json:"resource,omitempty"`
}

// ToolQueryExecute runs the workspace's effective query. Query failures are
// reported in the output's error field rather than as tool errors, so the
// attempt and its history entry are always visible.
func ToolQueryExecute(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryExecuteInput) (*sdkmcp.CallToolResult, QueryExecuteOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryExecuteInput) (*sdkmcp.CallToolResult, QueryExecuteOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, QueryExecuteOutput{}, err
		}
		if input.Text != "" {
			if _, err := d.Sessions.SetQueryText(p, input.Text); err != nil {
				return nil, QueryExecuteOutput{}, WrapError(err)
			}
		}

		out, err := d.Sessions.Execute(ctx, p)
		if err != nil {
			return nil, QueryExecuteOutput{}, WrapError(err)
		}

		output := QueryExecuteOutput{
			Query:      out.History.Query,
			Error:      out.Error,
			History:    out.History,
			Superseded: out.Superseded,
		}

		switch {
		case out.Superseded:
			output.Summary = "Query was superseded before it completed; its outcome was discarded."
		case out.Error != nil:
			output.Summary = fmt.Sprintf("Query failed (%s): %s", out.Error.Code, out.Error.Message)
		default:
			view, err := resultView(out.Result, 0, d.recordsLimit(input.MaxRecords))
			if err != nil {
				return nil, QueryExecuteOutput{}, WrapError(err)
			}
			output.Result = view
			output.Summary = fmt.Sprintf("%s returned in %s", countLabel(out.Result.RecordCount, "record", "records"), out.Result.ExecutionTime)
			output.Resource = resultRef(p)
		}
		return nil, output, nil
	}
}
