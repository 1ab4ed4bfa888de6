package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/query"
	"github.com/usestring/pmsinspect-mcp/pkg/export"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// ResultsGetInput is the input for pms_results_get.
type ResultsGetInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"Index of the first record to return (default: 0)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Records to return (default: 50)"`
}

// ResultsGetOutput is the output for pms_results_get.
type ResultsGetOutput struct {
	Result *ResultView       `json:"result,omitempty"`
	Error  *types.QueryError `json:"error,omitempty"`
	Hint   string            `json:"hint,omitempty"`
}

// ToolResultsGet pages through the latest result of a platform.
func ToolResultsGet(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsGetInput) (*sdkmcp.CallToolResult, ResultsGetOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsGetInput) (*sdkmcp.CallToolResult, ResultsGetOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, ResultsGetOutput{}, err
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, ResultsGetOutput{}, WrapError(err)
		}
		if input.Offset < 0 {
			return nil, ResultsGetOutput{}, ErrInvalidInput("offset must not be negative")
		}

		view, err := resultView(s.Result, input.Offset, d.recordsLimit(input.Limit))
		if err != nil {
			return nil, ResultsGetOutput{}, WrapError(err)
		}
		output := ResultsGetOutput{Result: view, Error: s.Error}
		switch {
		case view == nil && s.Error == nil:
			output.Hint = "No result yet. Run pms_query_execute first."
		case view != nil && view.Truncated:
			output.Hint = fmt.Sprintf("More records available. Use offset=%d.", view.Offset+view.Returned)
		}
		return nil, output, nil
	}
}

// ResultsClearInput is the input for pms_results_clear.
type ResultsClearInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
}

// ToolResultsClear drops the latest result and error.
func ToolResultsClear(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsClearInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsClearInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, WorkspaceOutput{}, err
		}
		s, err := d.Sessions.ClearResults(p)
		if err != nil {
			return nil, WorkspaceOutput{}, WrapError(err)
		}
		return nil, WorkspaceOutput{Workspace: workspaceView(s)}, nil
	}
}

// ResultsQueryInput is the input for pms_results_query.
type ResultsQueryInput struct {
	Platform    string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Expression  string `json:"expression" jsonschema:"required,jq expression run against each record (e.g. 'select(.status == \"confirmed\") | .id')"`
	Whole       bool   `json:"whole,omitempty" jsonschema:"Run once over the array of all records instead of per record (e.g. 'map(.total) | add')"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Max values to return (default: 1000)"`
}

// ResultsQueryOutput is the output for pms_results_query.
type ResultsQueryOutput struct {
	Values         []any    `json:"values,omitzero"`
	Errors         []string `json:"errors,omitempty"`
	RawCount       int      `json:"raw_count"`
	MatchedIndices []int    `json:"matched_indices,omitempty"`
	Truncated      bool     `json:"truncated,omitempty"`
	Hints          []string `json:"hints,omitempty"`
}

// ToolResultsQuery slices the latest result with a jq expression without
// calling the vendor again.
func ToolResultsQuery(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsQueryInput) (*sdkmcp.CallToolResult, ResultsQueryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsQueryInput) (*sdkmcp.CallToolResult, ResultsQueryOutput, error) {
		if input.Expression == "" {
			return nil, ResultsQueryOutput{}, ErrInvalidInput("expression is required")
		}
		if err := d.Query.ValidateExpression(input.Expression); err != nil {
			return nil, ResultsQueryOutput{}, ErrInvalidInput(err.Error())
		}
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, ResultsQueryOutput{}, err
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, ResultsQueryOutput{}, WrapError(err)
		}
		if s.Result == nil {
			return nil, ResultsQueryOutput{}, ErrNotFound("result", string(p))
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 1000
		}
		res, err := d.Query.Records(s.Result.Records, input.Expression, query.Options{
			Deduplicate: input.Deduplicate,
			MaxResults:  maxResults,
			Whole:       input.Whole,
		})
		if err != nil {
			return nil, ResultsQueryOutput{}, ErrInvalidInput(err.Error())
		}

		output := ResultsQueryOutput{
			Values:         res.Values,
			Errors:         res.Errors,
			RawCount:       res.RawCount,
			MatchedIndices: res.MatchedIndices,
			Truncated:      res.Truncated,
		}
		if len(res.Values) == 0 {
			output.Hints = append(output.Hints, "No values matched. Try '.', 'keys' or set whole=true for aggregate expressions.")
		}
		if res.Truncated {
			output.Hints = append(output.Hints, fmt.Sprintf("Truncated at %d values. Raise max_results for more.", maxResults))
		}
		return nil, output, nil
	}
}

// ResultsExportInput is the input for pms_results_export.
type ResultsExportInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Format   string `json:"format,omitempty" jsonschema:"csv, tsv (alias: excel) or json (default: csv)"`
	Write    bool   `json:"write,omitempty" jsonschema:"Also write the export to the configured export directory"`
}

// ResultsExportOutput is the output for pms_results_export.
type ResultsExportOutput struct {
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Path     string `json:"path,omitempty"`
	Records  int    `json:"records"`
}

// ToolResultsExport renders the latest result as CSV, TSV or JSON.
func ToolResultsExport(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsExportInput) (*sdkmcp.CallToolResult, ResultsExportOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsExportInput) (*sdkmcp.CallToolResult, ResultsExportOutput, error) {
		format, err := export.ParseFormat(input.Format)
		if err != nil {
			return nil, ResultsExportOutput{}, ErrInvalidInput(err.Error())
		}
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, ResultsExportOutput{}, err
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, ResultsExportOutput{}, WrapError(err)
		}
		if s.Result == nil {
			return nil, ResultsExportOutput{}, ErrNotFound("result", string(p))
		}

		content, err := export.Render(format, s.Result.Records)
		if err != nil {
			return nil, ResultsExportOutput{}, WrapError(err)
		}
		now := d.now()
		output := ResultsExportOutput{
			Format:   string(format),
			MIMEType: format.MIMEType(),
			Filename: export.Filename(format, now),
			Content:  content,
			Records:  len(s.Result.Records),
		}

		if input.Write {
			if d.Config == nil || d.Config.ExportDir == "" {
				return nil, ResultsExportOutput{}, ErrInvalidInput("no export directory configured (set EXPORT_DIR)")
			}
			path, err := export.Write(d.Config.ExportDir, format, s.Result.Records, now)
			if err != nil {
				return nil, ResultsExportOutput{}, WrapError(err)
			}
			output.Path = path
		}
		return nil, output, nil
	}
}
