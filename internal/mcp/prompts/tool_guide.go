package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleToolGuide serves the tool usage guide. Export rows are included only
// when an export directory is configured.
func HandleToolGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# PMS Inspector Tool Guide\n\n")

		if cfg.live() {
			sb.WriteString("The server runs in **live** mode: queries hit the vendor APIs with the token given to `pms_connect`.\n\n")
		} else {
			sb.WriteString("The server runs in **mock** mode: connections only validate the token locally and queries return synthetic records after a short delay. Some attempts fail on purpose to exercise error handling.\n\n")
		}

		sb.WriteString("## Which Tool\n\n")
		sb.WriteString("| Goal | Tool | Example |\n")
		sb.WriteString("|------|------|--------|\n")
		sb.WriteString("| See platforms and connection status | `pms_platforms_list` | |\n")
		sb.WriteString("| Switch platform or environment | `pms_platform_select` | `platform: \"hostaway\", environment: \"Sandbox\"` |\n")
		sb.WriteString("| Authenticate | `pms_connect` | `token: \"...\"` |\n")
		sb.WriteString("| Pick an endpoint | `pms_endpoint_select` | `endpoint: \"/reservations\"` |\n")
		sb.WriteString("| Add a filter | `pms_filter_add` | `key: \"status\", value: \"confirmed\"` |\n")
		sb.WriteString("| Write the query by hand | `pms_query_set` | `text: \"GET /guests?email=a%40b.com\", lock: false` |\n")
		sb.WriteString("| Run it | `pms_query_execute` | |\n")
		sb.WriteString("| Page through records | `pms_results_get` | `offset: 50, limit: 50` |\n")
		sb.WriteString("| Slice records locally | `pms_results_query` | `expression: \"select(.status == \\\"Confirmed\\\") | .id\"` |\n")
		if cfg.ExportEnabled {
			sb.WriteString("| Save records to disk | `pms_results_export` | `format: \"csv\", write: true` |\n")
		} else {
			sb.WriteString("| Render records as CSV/TSV/JSON | `pms_results_export` | `format: \"tsv\"` |\n")
		}
		sb.WriteString("| Review past attempts | `pms_history_list` | `endpoint: \"/listings\"` |\n")
		sb.WriteString("| Infer record fields / draft a schema entry | `pms_results_shape` | `platform: \"guesty\"` |\n")

		sb.WriteString("\n**Key rules**:\n")
		sb.WriteString("- Every tool takes an optional `platform`; without it the selected platform is used\n")
		sb.WriteString("- Selecting an endpoint clears filters, query text and the latest result\n")
		sb.WriteString("- Filter edits rewrite the query text while the query is locked (the default); `lock: false` keeps hand-edited text\n")
		sb.WriteString("- Filters only come from `available_filters`; each can be active once\n")
		sb.WriteString("- Execution always issues GET; the verb in the query text is informational\n")
		sb.WriteString("- The selected endpoint wins over the path written in the query text; the text supplies the params\n")
		sb.WriteString("- Query failures come back in the `error` field of `pms_query_execute`, not as tool errors\n")

		sb.WriteString("\n## Keeping Context Small\n")
		sb.WriteString("- `pms_query_execute` inlines only `max_records` records; use `pms_results_get` to page\n")
		sb.WriteString("- Prefer `pms_results_query` over reading every record: `.id`, `keys`, or `whole: true` with `map(.total) | add`\n")
		sb.WriteString("- `pms_discover_endpoints` lists parameter names only; full declarations live in `pmsinspect://schema/{platform}`\n")

		sb.WriteString("\n## Resources\n")
		sb.WriteString("- `pmsinspect://platforms`: platform list with status\n")
		sb.WriteString(fmt.Sprintf("- `pmsinspect://history`: the last %d query attempts\n", cfg.historyLimit()))
		sb.WriteString("- `pmsinspect://schema/{platform}`: the discovered endpoint schema\n")
		sb.WriteString("- `pmsinspect://results/{platform}`: the full latest result. High context cost\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide to the PMS inspector tools",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

func (c *Config) historyLimit() int {
	if c == nil || c.HistoryLimit <= 0 {
		return 50
	}
	return c.HistoryLimit
}
