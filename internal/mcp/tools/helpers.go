// Package tools contains MCP tool implementations for the PMS inspector.
package tools

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// MimeJSON is the MIME type of every resource and tool payload.
const MimeJSON = "application/json"

// Resource URIs.
const (
	URIPlatforms      = "pmsinspect://platforms"
	URIHistory        = "pmsinspect://history"
	URISchemaTemplate = "pmsinspect://schema/{platform}"
	URIResultTemplate = "pmsinspect://results/{platform}"
)

// SchemaURI returns the schema resource URI for p.
func SchemaURI(p platform.Key) string {
	return "pmsinspect://schema/" + string(p)
}

// ResultsURI returns the results resource URI for p.
func ResultsURI(p platform.Key) string {
	return "pmsinspect://results/" + string(p)
}

// printer renders counts for human-readable summaries ("1,234 records").
var printer = message.NewPrinter(language.English)

// countLabel formats n with digit grouping followed by the singular or
// plural noun.
func countLabel(n int, singular, plural string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, singular)
	}
	return printer.Sprintf("%d %s", n, plural)
}

func resultRef(p platform.Key) *types.ResourceRef {
	return &types.ResourceRef{
		URI:  ResultsURI(p),
		MIME: MimeJSON,
		Hint: "Full result with every record",
	}
}
