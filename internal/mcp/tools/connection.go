package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ConnectInput is the input for pms_connect.
type ConnectInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Token    string `json:"token" jsonschema:"required,API access token (at least 10 characters)"`
}

// ConnectOutput is the output for pms_connect.
type ConnectOutput struct {
	Platform  PlatformView   `json:"platform"`
	Endpoints []EndpointView `json:"endpoints,omitempty"`
	Summary   string         `json:"summary"`
}

// ToolConnect authenticates a platform and discovers its endpoints.
func ToolConnect(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ConnectInput) (*sdkmcp.CallToolResult, ConnectOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ConnectInput) (*sdkmcp.CallToolResult, ConnectOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, ConnectOutput{}, err
		}

		s, err := d.Sessions.Connect(ctx, p, input.Token)
		if err != nil {
			return nil, ConnectOutput{}, WrapError(err)
		}

		output := ConnectOutput{
			Platform:  platformView(s, d.Sessions.Selected()),
			Endpoints: endpointViews(s.Schema),
		}
		output.Summary = fmt.Sprintf("Connected to %s (%s), %s discovered",
			output.Platform.Name, s.Environment, countLabel(len(s.Schema), "endpoint", "endpoints"))
		return nil, output, nil
	}
}

// DisconnectInput is the input for pms_disconnect.
type DisconnectInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
}

// DisconnectOutput is the output for pms_disconnect.
type DisconnectOutput struct {
	Platform PlatformView `json:"platform"`
}

// ToolDisconnect drops a platform's connection, schema and results.
func ToolDisconnect(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DisconnectInput) (*sdkmcp.CallToolResult, DisconnectOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DisconnectInput) (*sdkmcp.CallToolResult, DisconnectOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, DisconnectOutput{}, err
		}
		s, err := d.Sessions.Disconnect(p)
		if err != nil {
			return nil, DisconnectOutput{}, WrapError(err)
		}
		return nil, DisconnectOutput{Platform: platformView(s, d.Sessions.Selected())}, nil
	}
}

// DiscoverInput is the input for pms_discover_endpoints.
type DiscoverInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Platform key (default: selected platform)"`
	Refresh  bool   `json:"refresh,omitempty" jsonschema:"Bypass the schema cache (default: false)"`
}

// DiscoverOutput is the output for pms_discover_endpoints.
type DiscoverOutput struct {
	Platform  string         `json:"platform"`
	Endpoints []EndpointView `json:"endpoints,omitzero"`
	Selected  string         `json:"selected_endpoint,omitempty"`
	SchemaURI string         `json:"schema_uri"`
}

// ToolDiscoverEndpoints (re)discovers the endpoints of a connected platform.
func ToolDiscoverEndpoints(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DiscoverInput) (*sdkmcp.CallToolResult, DiscoverOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DiscoverInput) (*sdkmcp.CallToolResult, DiscoverOutput, error) {
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, DiscoverOutput{}, err
		}

		schema, err := d.Sessions.Discover(ctx, p, input.Refresh)
		if err != nil {
			return nil, DiscoverOutput{}, WrapError(err)
		}
		s, err := d.Sessions.Session(p)
		if err != nil {
			return nil, DiscoverOutput{}, WrapError(err)
		}

		return nil, DiscoverOutput{
			Platform:  string(p),
			Endpoints: endpointViews(schema),
			Selected:  s.SelectedEndpoint,
			SchemaURI: SchemaURI(p),
		}, nil
	}
}
