package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/pkg/querytext"
	"github.com/usestring/pmsinspect-mcp/pkg/recordshape"
)

// ResultsShapeInput is the input for pms_results_shape.
type ResultsShapeInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
}

// ResultsShapeOutput is the output for pms_results_shape.
type ResultsShapeOutput struct {
	Endpoint    string              `json:"endpoint"`
	Records     int                 `json:"records"`
	Fields      []recordshape.Field `json:"fields,omitzero"`
	CatalogYAML string              `json:"catalog_yaml,omitempty"`
	Hint        string              `json:"hint,omitempty"`
}

// ToolResultsShape infers the field layout of the latest result and drafts
// a schema file entry for the endpoint that produced it.
func ToolResultsShape(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsShapeInput) (*sdkmcp.CallToolResult, ResultsShapeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResultsShapeInput) (*sdkmcp.CallToolResult, ResultsShapeOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, ResultsShapeOutput{}, err
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, ResultsShapeOutput{}, WrapError(err)
		}
		if s.Result == nil {
			return nil, ResultsShapeOutput{}, ErrNotFound("result", string(p))
		}

		var endpoint string
		switch {
		case s.Result.Metadata != nil && s.Result.Metadata.Endpoint != "":
			endpoint = s.Result.Metadata.Endpoint
		case s.SelectedEndpoint != "":
			endpoint = s.SelectedEndpoint
		default:
			endpoint = querytext.Parse(s.EffectiveQuery()).Endpoint
		}

		shape := recordshape.Infer(s.Result.Records)
		output := ResultsShapeOutput{
			Endpoint: endpoint,
			Records:  shape.Records,
			Fields:   shape.Fields,
		}
		if shape.Records == 0 {
			output.Hint = "The result has no records to infer fields from."
			return nil, output, nil
		}

		output.CatalogYAML, err = shape.CatalogYAML(string(p), endpoint)
		if err != nil {
			return nil, ResultsShapeOutput{}, err
		}
		output.Hint = "catalog_yaml can be merged into a SCHEMA_FILE to declare these fields as filters."
		return nil, output, nil
	}
}
