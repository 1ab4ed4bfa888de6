package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Tool guide
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "pms_tool_guide",
		Description: "RECOMMENDED: How the PMS inspector tools fit together and how to keep tool output small. Start here.",
	}, HandleToolGuide(cfg))

	// Prompt 2: Inspect one endpoint
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "inspect_pms_endpoint",
		Description: "Step-by-step workflow to connect a platform, filter an endpoint and describe the records it returns.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "platform",
				Description: "Platform key (guesty, hospitable, ownerrez, hostaway)",
				Required:    false,
			},
			{
				Name:        "endpoint",
				Description: "Endpoint path (e.g., '/reservations')",
				Required:    false,
			},
		},
	}, HandleInspectEndpoint(cfg))

	// Prompt 3: Compare platforms
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "compare_pms_platforms",
		Description: "Compare the same endpoint across connected platforms: field names, filters, status values and latency.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "endpoint",
				Description: "Endpoint path to compare (default: /reservations)",
				Required:    false,
			},
		},
	}, HandleComparePlatforms(cfg))
}
