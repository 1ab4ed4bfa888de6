package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/internal/mcp/tools"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

// Resource URI scheme: pmsinspect://
// Supported URIs:
//   pmsinspect://platforms
//   pmsinspect://history
//   pmsinspect://schema/{platform}
//   pmsinspect://results/{platform}

const uriScheme = "pmsinspect://"

// registerResources registers resources, templates and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         tools.URIPlatforms,
		Name:        "Platforms",
		Description: "Every supported platform with environment, base URL and connection status. Same data as pms_platforms_list.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourcePlatforms)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         tools.URIHistory,
		Name:        "Query History",
		Description: "Retained query attempts across all platforms, newest first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceHistory)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: tools.URISchemaTemplate,
		Name:        "Endpoint Schema",
		Description: "Discovered endpoints of a connected platform with full parameter declarations (type, enum values, defaults, required).",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.7,
		},
	}, s.handleResourceSchema)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: tools.URIResultTemplate,
		Name:        "Latest Result",
		Description: "Every record of a platform's latest result. High context cost - pms_results_get pages and pms_results_query extracts fields. Only fetch for a complete dump.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceResults)
}

// Resource handlers

func (s *Server) handleResourcePlatforms(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	_, out, err := tools.ToolPlatformsList(s.deps)(ctx, nil, tools.PlatformsListInput{})
	if err != nil {
		return nil, err
	}
	return toResourceResult(req.Params.URI, out)
}

func (s *Server) handleResourceHistory(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	log := s.deps.Sessions.History()
	content := map[string]any{
		"entries":  log.List(history.Filter{}),
		"capacity": log.Limit(),
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	sess, err := s.deps.Sessions.Session(params.platform)
	if err != nil {
		return nil, tools.WrapError(err)
	}
	if len(sess.Schema) == 0 {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	content := map[string]any{
		"platform":          sess.Platform,
		"environment":       sess.Environment,
		"selected_endpoint": sess.SelectedEndpoint,
		"endpoints":         sess.Schema,
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceResults(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	sess, err := s.deps.Sessions.Session(params.platform)
	if err != nil {
		return nil, tools.WrapError(err)
	}
	if sess.Result == nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	view, err := tools.FullResultView(sess.Result)
	if err != nil {
		return nil, fmt.Errorf("flattening records: %w", err)
	}
	return toResourceResult(req.Params.URI, view)
}

// Helper functions

type resourceParams struct {
	kind     string
	platform platform.Key
}

// parseResourceURI extracts the resource type and platform from a
// pmsinspect:// URI.
func parseResourceURI(uri string) (resourceParams, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return resourceParams{}, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	path := strings.Trim(strings.TrimPrefix(uri, uriScheme), "/")
	if path == "" {
		return resourceParams{}, tools.ErrInvalidInput("empty resource path")
	}
	parts := strings.Split(path, "/")

	params := resourceParams{kind: parts[0]}
	switch params.kind {
	case "platforms", "history":
		return params, nil

	case "schema", "results":
		if len(parts) < 2 || parts[1] == "" {
			return resourceParams{}, tools.ErrInvalidInput(params.kind + " URI requires a platform key")
		}
		p, err := platform.Parse(parts[1])
		if err != nil {
			return resourceParams{}, tools.ErrInvalidInput(err.Error())
		}
		params.platform = p
		return params, nil

	default:
		return resourceParams{}, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", params.kind))
	}
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
