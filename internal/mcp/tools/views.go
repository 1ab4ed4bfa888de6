package tools

import (
	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Tool outputs never embed session.Session or types.QueryResult directly:
// records are ordered maps whose inferred schema would reject real rows, so
// they are flattened into the view types below.

// PlatformView summarizes one platform and its connection.
type PlatformView struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	Environments    []string `json:"environments,omitempty"`
	Environment     string   `json:"environment"`
	BaseURL         string   `json:"base_url"`
	Status          string   `json:"status"`
	ConnectedAt     string   `json:"connected_at,omitempty"`
	ConnectionError string   `json:"connection_error,omitempty"`
	Selected        bool     `json:"selected,omitempty"`
	EndpointCount   int      `json:"endpoint_count,omitempty"`
}

func platformView(s session.Session, selected platform.Key) PlatformView {
	v := PlatformView{
		Key:             string(s.Platform),
		Environment:     s.Environment,
		Status:          string(s.Connection.Status),
		ConnectedAt:     s.Connection.ConnectedAt,
		ConnectionError: s.Connection.Error,
		Selected:        s.Platform == selected,
		EndpointCount:   len(s.Schema),
	}
	if cfg, ok := platform.Lookup(s.Platform); ok {
		v.Name = cfg.Name
		v.Environments = cfg.Environments
		v.BaseURL = cfg.BaseURL
	}
	return v
}

// ParameterView describes a filter available on the selected endpoint.
type ParameterView struct {
	Key         string   `json:"key"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Default     string   `json:"default,omitempty"`
	Values      []string `json:"values,omitempty"`
	Active      bool     `json:"active,omitempty"`
}

// WorkspaceView is the editable query state of one platform.
type WorkspaceView struct {
	Platform         string               `json:"platform"`
	Environment      string               `json:"environment"`
	Status           string               `json:"status"`
	SelectedEndpoint string               `json:"selected_endpoint,omitempty"`
	Methods          []string             `json:"methods,omitempty"`
	Filters          []types.ActiveFilter `json:"filters,omitempty"`
	AvailableFilters []ParameterView      `json:"available_filters,omitempty"`
	QueryText        string               `json:"query_text,omitempty"`
	QueryLocked      bool                 `json:"query_locked"`
	BuiltQuery       string               `json:"built_query,omitempty"`
	HasResult        bool                 `json:"has_result,omitempty"`
	Error            *types.QueryError    `json:"error,omitempty"`
}

func workspaceView(s session.Session) WorkspaceView {
	v := WorkspaceView{
		Platform:         string(s.Platform),
		Environment:      s.Environment,
		Status:           string(s.Connection.Status),
		SelectedEndpoint: s.SelectedEndpoint,
		Filters:          s.Filters,
		QueryText:        s.QueryText,
		QueryLocked:      s.QueryLocked,
		BuiltQuery:       s.BuiltQuery(),
		HasResult:        s.Result != nil,
		Error:            s.Error,
	}
	if ep, ok := s.Schema[s.SelectedEndpoint]; ok {
		v.Methods = ep.Methods
		active := make(map[string]bool, len(s.Filters))
		for _, f := range s.Filters {
			active[f.Key] = true
		}
		for _, name := range ep.ParameterNames() {
			p := ep.Parameters[name]
			pv := ParameterView{
				Key:         name,
				Type:        string(p.Type),
				Description: p.Description,
				Required:    p.Required,
				Values:      p.Values,
				Active:      active[name],
			}
			if p.Default != nil {
				pv.Default = types.FormatValue(p.Default)
			}
			v.AvailableFilters = append(v.AvailableFilters, pv)
		}
	}
	return v
}

// EndpointView describes one discovered endpoint.
type EndpointView struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods,omitempty"`
	Description string   `json:"description,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`
}

func endpointViews(schema types.EndpointSchema) []EndpointView {
	paths := schema.Paths()
	out := make([]EndpointView, 0, len(paths))
	for _, path := range paths {
		ep := schema[path]
		out = append(out, EndpointView{
			Path:        path,
			Methods:     ep.Methods,
			Description: ep.Description,
			Parameters:  ep.ParameterNames(),
		})
	}
	return out
}

// ResultView is a page of a query result.
type ResultView struct {
	Success       bool                  `json:"success"`
	Count         int                   `json:"count"`
	Offset        int                   `json:"offset,omitempty"`
	Returned      int                   `json:"returned"`
	Columns       []string              `json:"columns,omitempty"`
	Records       []any                 `json:"records,omitempty"`
	ExecutionTime string                `json:"execution_time,omitempty"`
	Metadata      *types.ResultMetadata `json:"metadata,omitempty"`
	Truncated     bool                  `json:"truncated,omitempty"`
}

// resultView pages r starting at offset with at most limit records.
func resultView(r *types.QueryResult, offset, limit int) (*ResultView, error) {
	if r == nil {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	total := len(r.Records)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}

	records, err := types.RecordsToAny(r.Records[start:end])
	if err != nil {
		return nil, err
	}
	return &ResultView{
		Success:       r.Success,
		Count:         r.RecordCount,
		Offset:        offset,
		Returned:      end - start,
		Columns:       r.Columns(),
		Records:       records,
		ExecutionTime: r.ExecutionTime,
		Metadata:      r.Metadata,
		Truncated:     end < total,
	}, nil
}

// FullResultView returns every record of r. Used by the results resource.
func FullResultView(r *types.QueryResult) (*ResultView, error) {
	return resultView(r, 0, 0)
}
