package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: pms_platforms_list
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_platforms_list",
		Description: "List the supported PMS platforms (Guesty, Hospitable, OwnerRez, Hostaway) with environment, base URL and connection status. Start here to see which platform is selected and whether it is connected.",
	}, ToolPlatformsList(d))

	// Tool 2: pms_platform_select
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_platform_select",
		Description: "Select the active platform and optionally its environment. Switching platforms clears that platform's selected endpoint, filters and latest result; the connection and discovered schema are kept.",
	}, ToolPlatformSelect(d))

	// Tool 3: pms_connect
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_connect",
		Description: "Connect a platform with an API access token (at least 10 characters). In live mode the token is probed with a one-record request before the platform counts as connected. Discovery runs automatically and the first endpoint is selected.",
	}, ToolConnect(d))

	// Tool 4: pms_disconnect
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_disconnect",
		Description: "Disconnect a platform. Drops the token and clears the discovered schema, selected endpoint, filters, result and error. In-flight queries for the platform are discarded when they finish.",
	}, ToolDisconnect(d))

	// Tool 5: pms_discover_endpoints
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_discover_endpoints",
		Description: "List the endpoints of a connected platform with their methods and parameter names. Set refresh=true to bypass the schema cache. Full parameter declarations are in the pmsinspect://schema/{platform} resource.",
	}, ToolDiscoverEndpoints(d))

	// Tool 6: pms_endpoint_select
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_endpoint_select",
		Description: "Select the endpoint to query. Returns the workspace with available_filters for the endpoint. Clears active filters, query text and the latest result.",
	}, ToolEndpointSelect(d))

	// Tool 7: pms_filter_add
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_filter_add",
		Description: "Activate a filter from available_filters, seeded with its declared default (or the given value). Each parameter can be active once. The query text is rebuilt.",
	}, ToolFilterAdd(d))

	// Tool 8: pms_filter_update
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_filter_update",
		Description: "Set the value of an active filter. Enum filters only accept their declared values. Empty values are left out of the query.",
	}, ToolFilterUpdate(d))

	// Tool 9: pms_filter_remove
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_filter_remove",
		Description: "Deactivate a filter. The query text is rebuilt while other filters remain; removing the last filter keeps the current text.",
	}, ToolFilterRemove(d))

	// Tool 10: pms_query_build
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_query_build",
		Description: "Show the query built from the active filters and how the effective query (or the given text) parses into method, endpoint and typed params. Read-only.",
	}, ToolQueryBuild(d))

	// Tool 11: pms_query_set
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_query_set",
		Description: "Replace the workspace query text, e.g. 'GET /reservations?status=confirmed&limit=5'. The text's params are sent on execution; the selected endpoint wins over the path in the text. Pass lock=false to keep hand-edited text when filters change.",
	}, ToolQuerySet(d))

	// Tool 12: pms_query_execute
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_query_execute",
		Description: "Execute the workspace's effective query against the platform (live API or mock data). Every attempt is recorded in history first. Failures come back in the error field with a code (CONNECTION_ERROR, API_ERROR, ERROR, CANCELLED). Returns the first max_records records inline.",
	}, ToolQueryExecute(d))

	// Tool 13: pms_results_get
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_results_get",
		Description: "Page through the latest result of a platform with offset and limit. Columns follow the first record's field order.",
	}, ToolResultsGet(d))

	// Tool 14: pms_results_clear
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_results_clear",
		Description: "Clear the latest result and error of a platform.",
	}, ToolResultsClear(d))

	// Tool 15: pms_results_query
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_results_query",
		Description: "Extract values from the latest result with a jq expression, without calling the vendor again. Runs per record by default; set whole=true to run once over the array of records.",
	}, ToolResultsQuery(d))

	// Tool 16: pms_results_export
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_results_export",
		Description: "Export the latest result as csv, tsv (Excel) or json. Returns the content and export filename; set write=true to also write it to the configured export directory.",
	}, ToolResultsExport(d))

	// Tool 17: pms_history_list
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_history_list",
		Description: "List recent query attempts (newest first, at most 50 retained), optionally filtered by platform and endpoint.",
	}, ToolHistoryList(d))

	// Tool 18: pms_results_shape
	AddTool(srv, &sdkmcp.Tool{
		Name:        "pms_results_shape",
		Description: "Infer the fields of the latest result: types, presence frequency, distinct counts, examples and formats (uuid, iso8601, date, url, email, currency, enum). Also drafts a YAML schema file entry declaring the top-level scalar fields as filters.",
	}, ToolResultsShape(d))
}
