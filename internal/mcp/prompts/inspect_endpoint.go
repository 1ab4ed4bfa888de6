package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleInspectEndpoint walks through connecting a platform and querying one
// endpoint.
func HandleInspectEndpoint(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var platformKey, endpoint string
		if args := req.Params.Arguments; args != nil {
			platformKey = strings.ToLower(strings.TrimSpace(args["platform"]))
			endpoint = strings.TrimSpace(args["endpoint"])
		}

		var sb strings.Builder

		sb.WriteString("# Inspect a PMS Endpoint\n\n")
		sb.WriteString("You are helping a developer explore a property management system API. ")
		sb.WriteString("Find out what an endpoint returns, which filters it accepts and what the records look like.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Check status** with `pms_platforms_list`\n")
		sb.WriteString("   - `status: connected` means discovery already ran\n")
		sb.WriteString("   - `connection_error` holds the last failed connect\n\n")
		sb.WriteString("2. **Connect** with `pms_connect` if needed\n")
		if cfg.live() {
			sb.WriteString("   - The token is probed with a one-record request; a 401 shows up as the connect error\n\n")
		} else {
			sb.WriteString("   - Any token of 10 or more characters works in mock mode\n\n")
		}
		sb.WriteString("3. **Select the endpoint** with `pms_endpoint_select`\n")
		sb.WriteString("   - Read `available_filters`: type, enum `values`, `default` and `required`\n\n")
		sb.WriteString("4. **Add filters** with `pms_filter_add`, then check the text with `pms_query_build`\n\n")
		sb.WriteString("5. **Execute** with `pms_query_execute`\n")
		sb.WriteString("   - On `error`, read its `code`: CONNECTION_ERROR (reconnect), API_ERROR (check filters), CANCELLED (a newer run replaced it)\n\n")
		sb.WriteString("6. **Summarize** the record shape from `columns` and a few records\n\n")

		sb.WriteString("## Suggested Calls\n\n")
		sb.WriteString("```\n")
		if platformKey != "" {
			sb.WriteString(fmt.Sprintf("pms_platform_select(platform=\"%s\")\n", platformKey))
		}
		sb.WriteString("pms_connect(token=\"<token>\")\n")
		if endpoint != "" {
			sb.WriteString(fmt.Sprintf("pms_endpoint_select(endpoint=\"%s\")\n", endpoint))
		} else {
			sb.WriteString("pms_discover_endpoints()\n")
			sb.WriteString("pms_endpoint_select(endpoint=\"<path from the list>\")\n")
		}
		sb.WriteString("pms_query_execute(max_records=5)\n")
		sb.WriteString("pms_results_query(expression=\"keys\", deduplicate=true)\n")
		sb.WriteString("```\n\n")

		sb.WriteString("## Output\n\n")
		sb.WriteString("Report:\n")
		sb.WriteString("- The endpoint, its methods and the filters that mattered\n")
		sb.WriteString("- The record fields with an example value each\n")
		sb.WriteString("- Any errors and what fixed them\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for inspecting one PMS endpoint",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
