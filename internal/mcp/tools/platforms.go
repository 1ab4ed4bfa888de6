package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// PlatformsListInput is the input for pms_platforms_list.
type PlatformsListInput struct{}

// PlatformsListOutput is the output for pms_platforms_list.
type PlatformsListOutput struct {
	Mode      string         `json:"mode"`
	Selected  string         `json:"selected"`
	Platforms []PlatformView `json:"platforms,omitzero"`
}

// ToolPlatformsList lists every platform with its connection status.
func ToolPlatformsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input PlatformsListInput) (*sdkmcp.CallToolResult, PlatformsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input PlatformsListInput) (*sdkmcp.CallToolResult, PlatformsListOutput, error) {
		state := d.Sessions.Snapshot()

		output := PlatformsListOutput{
			Mode:      string(state.Mode),
			Selected:  string(state.Selected),
			Platforms: make([]PlatformView, 0, len(state.Sessions)),
		}
		for _, p := range platform.All() {
			output.Platforms = append(output.Platforms, platformView(state.Sessions[p], state.Selected))
		}
		return nil, output, nil
	}
}

// PlatformSelectInput is the input for pms_platform_select.
type PlatformSelectInput struct {
	Platform    string `json:"platform" jsonschema:"required,Platform key: guesty, hospitable, ownerrez or hostaway"`
	Environment string `json:"environment,omitempty" jsonschema:"Environment name (e.g. Production, Sandbox); default: keep current"`
}

// PlatformSelectOutput is the output for pms_platform_select.
type PlatformSelectOutput struct {
	Platform  PlatformView  `json:"platform"`
	Workspace WorkspaceView `json:"workspace"`
}

// ToolPlatformSelect switches the active platform and optionally its environment.
func ToolPlatformSelect(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input PlatformSelectInput) (*sdkmcp.CallToolResult, PlatformSelectOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input PlatformSelectInput) (*sdkmcp.CallToolResult, PlatformSelectOutput, error) {
		if input.Platform == "" {
			return nil, PlatformSelectOutput{}, ErrInvalidInput("platform is required")
		}
		p, err := d.ResolvePlatform(input.Platform)
		if err != nil {
			return nil, PlatformSelectOutput{}, err
		}

		s, err := d.Sessions.SelectPlatform(p)
		if err != nil {
			return nil, PlatformSelectOutput{}, WrapError(err)
		}
		if input.Environment != "" {
			if s, err = d.Sessions.SelectEnvironment(p, input.Environment); err != nil {
				return nil, PlatformSelectOutput{}, WrapError(err)
			}
		}

		return nil, PlatformSelectOutput{
			Platform:  platformView(s, p),
			Workspace: workspaceView(s),
		}, nil
	}
}
