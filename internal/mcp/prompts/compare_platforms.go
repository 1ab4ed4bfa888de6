package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleComparePlatforms guides a side-by-side comparison of the same kind of
// data across vendors.
func HandleComparePlatforms(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		endpoint := "/reservations"
		if args := req.Params.Arguments; args != nil && strings.TrimSpace(args["endpoint"]) != "" {
			endpoint = strings.TrimSpace(args["endpoint"])
		}

		var sb strings.Builder

		sb.WriteString("# Compare PMS Platforms\n\n")
		sb.WriteString(fmt.Sprintf("Compare what each connected platform returns for `%s`. ", endpoint))
		sb.WriteString("Each platform keeps its own workspace, so results can be gathered one platform at a time without losing the others.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. `pms_platforms_list` to find connected platforms\n")
		sb.WriteString("2. For each one:\n")
		sb.WriteString(fmt.Sprintf("   - `pms_endpoint_select(platform=..., endpoint=\"%s\")`\n", endpoint))
		sb.WriteString("   - If the endpoint is missing, `pms_discover_endpoints(platform=...)` and pick the closest path\n")
		sb.WriteString("   - `pms_query_execute(platform=..., max_records=3)`\n")
		sb.WriteString("   - `pms_results_query(platform=..., expression=\"keys\", deduplicate=true)`\n")
		sb.WriteString("3. `pms_history_list` to confirm every attempt ran\n\n")

		sb.WriteString("## Compare\n\n")
		sb.WriteString("| Aspect | Where to look |\n")
		sb.WriteString("|--------|---------------|\n")
		sb.WriteString("| Field names | `columns` on each result |\n")
		sb.WriteString("| Filters | `available_filters` per workspace |\n")
		sb.WriteString("| Status values | `pms_results_query(expression=\".status\", deduplicate=true)` |\n")
		sb.WriteString("| Latency | `execution_time` |\n")
		if cfg.live() {
			sb.WriteString("| Totals | `count` (the vendor's reported total) against `returned` |\n")
			sb.WriteString("| Params sent | `metadata.params` |\n")
		}

		sb.WriteString("\n## Tips\n\n")
		sb.WriteString("- Pass `platform` explicitly so the selected platform does not change between calls\n")
		sb.WriteString("- Vendors name the same concept differently (`checkIn`, `check_in`, `arrivalDate`); map them in the report\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for comparing an endpoint across PMS platforms",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
