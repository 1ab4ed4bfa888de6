package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/querytext"
)

// WorkspaceOutput is the output of every tool that edits the query workspace.
type WorkspaceOutput struct {
	Workspace WorkspaceView `json:"workspace"`
}

// editWorkspace resolves the platform, applies edit and renders the result.
func editWorkspace(d *Deps, platformArg string, edit func(p platform.Key) (session.Session, error)) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	p, err := d.ResolvePlatform(platformArg)
	if err != nil {
		return nil, WorkspaceOutput{}, err
	}
	s, err := edit(p)
	if err != nil {
		return nil, WorkspaceOutput{}, WrapError(err)
	}
	return nil, WorkspaceOutput{Workspace: workspaceView(s)}, nil
}

// EndpointSelectInput is the input for pms_endpoint_select.
type EndpointSelectInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Endpoint string `json:"endpoint" jsonschema:"required,Endpoint path from discovery (e.g. /reservations)"`
}

// ToolEndpointSelect selects the endpoint to query. Filters, query text and
// the latest result are cleared.
func ToolEndpointSelect(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input EndpointSelectInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input EndpointSelectInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		if input.Endpoint == "" {
			return nil, WorkspaceOutput{}, ErrInvalidInput("endpoint is required")
		}
		return editWorkspace(d, input.Platform, func(p platform.Key) (session.Session, error) {
			return d.Sessions.SelectEndpoint(p, input.Endpoint)
		})
	}
}

// FilterAddInput is the input for pms_filter_add.
type FilterAddInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Key      string `json:"key" jsonschema:"required,Parameter name from available_filters"`
	Value    string `json:"value,omitempty" jsonschema:"Initial value (default: the parameter's declared default)"`
}

// ToolFilterAdd activates a filter on the selected endpoint.
func ToolFilterAdd(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterAddInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterAddInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		if input.Key == "" {
			return nil, WorkspaceOutput{}, ErrInvalidInput("key is required")
		}
		return editWorkspace(d, input.Platform, func(p platform.Key) (session.Session, error) {
			s, err := d.Sessions.AddFilter(p, input.Key)
			if err != nil || input.Value == "" {
				return s, err
			}
			return d.Sessions.UpdateFilter(p, input.Key, input.Value)
		})
	}
}

// FilterUpdateInput is the input for pms_filter_update.
type FilterUpdateInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Key      string `json:"key" jsonschema:"required,Active filter name"`
	Value    string `json:"value" jsonschema:"New value; empty omits the filter from the query"`
}

// ToolFilterUpdate sets the value of an active filter.
func ToolFilterUpdate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterUpdateInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterUpdateInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		if input.Key == "" {
			return nil, WorkspaceOutput{}, ErrInvalidInput("key is required")
		}
		return editWorkspace(d, input.Platform, func(p platform.Key) (session.Session, error) {
			return d.Sessions.UpdateFilter(p, input.Key, input.Value)
		})
	}
}

// FilterRemoveInput is the input for pms_filter_remove.
type FilterRemoveInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Key      string `json:"key" jsonschema:"required,Active filter name"`
}

// ToolFilterRemove deactivates a filter.
func ToolFilterRemove(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterRemoveInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FilterRemoveInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		if input.Key == "" {
			return nil, WorkspaceOutput{}, ErrInvalidInput("key is required")
		}
		return editWorkspace(d, input.Platform, func(p platform.Key) (session.Session, error) {
			return d.Sessions.RemoveFilter(p, input.Key)
		})
	}
}

// QueryBuildInput is the input for pms_query_build.
type QueryBuildInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Text     string `json:"text,omitempty" jsonschema:"Query text to parse instead of the workspace's effective query"`
}

// QueryBuildOutput is the output for pms_query_build.
type QueryBuildOutput struct {
	BuiltQuery     string         `json:"built_query,omitempty"`
	EffectiveQuery string         `json:"effective_query,omitempty"`
	Method         string         `json:"method"`
	Endpoint       string         `json:"endpoint"`
	Params         map[string]any `json:"params,omitempty"`
	Hints          []string       `json:"hints,omitempty"`
}

// ToolQueryBuild renders the workspace's filters as query text and shows how
// the effective query parses.
func ToolQueryBuild(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBuildInput) (*sdkmcp.CallToolResult, QueryBuildOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBuildInput) (*sdkmcp.CallToolResult, QueryBuildOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, QueryBuildOutput{}, err
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, QueryBuildOutput{}, WrapError(err)
		}

		text := input.Text
		if text == "" {
			text = s.EffectiveQuery()
		}
		parsed := querytext.Parse(text)

		output := QueryBuildOutput{
			BuiltQuery:     s.BuiltQuery(),
			EffectiveQuery: text,
			Method:         parsed.Method,
			Endpoint:       parsed.Endpoint,
			Params:         parsed.Params,
		}
		if text == "" {
			output.Hints = append(output.Hints, "Nothing to build: select an endpoint with pms_endpoint_select or set text with pms_query_set.")
		}
		if parsed.Method != "GET" {
			output.Hints = append(output.Hints, "Execution always issues GET; the "+parsed.Method+" verb is informational.")
		}
		target := s.SelectedEndpoint
		if target == "" {
			target = parsed.Endpoint
		}
		if ep, ok := s.Schema[target]; ok && text != "" && !ep.Supports(parsed.Method) {
			output.Hints = append(output.Hints, fmt.Sprintf("%s does not declare %s (declared: %s).", target, parsed.Method, strings.Join(ep.Methods, ", ")))
		}
		return nil, output, nil
	}
}

// QuerySetInput is the input for pms_query_set.
type QuerySetInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Text     string `json:"text" jsonschema:"Query text, e.g. 'GET /reservations?status=confirmed'. Empty resets to the built query"`
	Lock     *bool  `json:"lock,omitempty" jsonschema:"false keeps this text when filters change; true rewrites it from the active filters again"`
}

// ToolQuerySet replaces the workspace's query text.
func ToolQuerySet(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QuerySetInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QuerySetInput) (*sdkmcp.CallToolResult, WorkspaceOutput, error) {
		return editWorkspace(d, input.Platform, func(p platform.Key) (session.Session, error) {
			s, err := d.Sessions.SetQueryText(p, input.Text)
			if err != nil || input.Lock == nil {
				return s, err
			}
			return d.Sessions.SetQueryLocked(p, *input.Lock)
		})
	}
}
