// Package session holds the inspector's per-platform working state and the
// transitions between states.
//
// Transitions are methods on Session values: they return a new Session and
// never mutate the receiver, so callers can compute a change, inspect it and
// commit it atomically.
package session

import (
	"slices"
	"strings"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/querytext"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Status is a platform's connection status.
type Status string

// Connection statuses.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// TokenTooShortMessage is reported for tokens below platform.MinTokenLength.
const TokenTooShortMessage = "Token must be at least 10 characters"

// Connection is the authentication state of one platform.
type Connection struct {
	Status      Status `json:"status"`
	Token       string `json:"-"`
	ConnectedAt string `json:"connectedAt,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Session is the working state of one platform: its connection, discovered
// schema, the endpoint and filters being edited, and the latest outcome.
//
// While QueryLocked is set, filter edits rewrite QueryText. Unlocked, they
// leave hand-edited text alone.
type Session struct {
	Platform         platform.Key         `json:"platform"`
	Environment      string               `json:"environment"`
	Connection       Connection           `json:"connection"`
	Schema           types.EndpointSchema `json:"schema,omitempty"`
	SelectedEndpoint string               `json:"selectedEndpoint,omitempty"`
	Filters          []types.ActiveFilter `json:"filters,omitempty"`
	QueryText        string               `json:"queryText,omitempty"`
	QueryLocked      bool                 `json:"queryLocked"`
	Result           *types.QueryResult   `json:"result,omitempty"`
	Error            *types.QueryError    `json:"error,omitempty"`
}

// New returns a disconnected session.
func New(p platform.Key, environment string) Session {
	return Session{
		Platform:    p,
		Environment: environment,
		Connection:  Connection{Status: StatusDisconnected},
		QueryLocked: true,
	}
}

// Connected reports whether the platform is connected.
func (s Session) Connected() bool {
	return s.Connection.Status == StatusConnected
}

func validation(msg, details string) *types.QueryError {
	return &types.QueryError{Code: types.CodeValidation, Message: msg, Details: details}
}

// Authenticate validates token locally and moves the session to connecting.
// A short token leaves the session disconnected with the validation message
// recorded on the connection.
func (s Session) Authenticate(token string) (Session, error) {
	if len(token) < platform.MinTokenLength {
		s.Connection = Connection{Status: StatusDisconnected, Error: TokenTooShortMessage}
		return s, validation(TokenTooShortMessage, "")
	}
	s.Connection = Connection{Status: StatusConnecting, Token: token}
	return s, nil
}

// MarkConnected completes a connection attempt.
func (s Session) MarkConnected(timestamp string) Session {
	s.Connection.Status = StatusConnected
	s.Connection.ConnectedAt = timestamp
	s.Connection.Error = ""
	return s
}

// MarkFailed records a failed connection attempt and drops the token.
func (s Session) MarkFailed(msg string) Session {
	s.Connection = Connection{Status: StatusError, Error: msg}
	return s
}

// Disconnect drops the token and clears the schema, endpoint, filters,
// result and error. The query text is kept.
func (s Session) Disconnect() Session {
	s.Connection = Connection{Status: StatusDisconnected}
	s.Schema = nil
	s.SelectedEndpoint = ""
	s.Filters = nil
	s.Result = nil
	s.Error = nil
	return s
}

// ResetWorkspace clears the endpoint, filters, result and error, as happens
// when the operator switches to this platform.
func (s Session) ResetWorkspace() Session {
	s.SelectedEndpoint = ""
	s.Filters = nil
	s.Result = nil
	s.Error = nil
	s.Connection.Error = ""
	return s
}

// SelectEnvironment switches to one of the platform's environments.
func (s Session) SelectEnvironment(env string) (Session, error) {
	cfg, ok := platform.Lookup(s.Platform)
	if ok {
		for _, e := range cfg.Environments {
			if strings.EqualFold(e, env) {
				s.Environment = e
				return s, nil
			}
		}
	}
	return s, validation("Unknown environment", env)
}

// SetSchema stores a discovered schema and selects its first endpoint when
// none is selected.
func (s Session) SetSchema(schema types.EndpointSchema) Session {
	s.Schema = schema
	return s.AutoSelectEndpoint()
}

// AutoSelectEndpoint selects the schema's first endpoint (in path order)
// when no endpoint is selected.
func (s Session) AutoSelectEndpoint() Session {
	if s.SelectedEndpoint != "" || len(s.Schema) == 0 {
		return s
	}
	s.SelectedEndpoint = s.Schema.Paths()[0]
	s.Filters = nil
	s.Result = nil
	return s
}

// SelectEndpoint switches the endpoint being queried and clears the
// filters, query text and result.
func (s Session) SelectEndpoint(path string) (Session, error) {
	if s.Schema == nil {
		return s, validation("No endpoints discovered", "Run discovery first")
	}
	if _, ok := s.Schema[path]; !ok {
		return s, validation("Unknown endpoint", path)
	}
	s.SelectedEndpoint = path
	s.Filters = nil
	s.QueryText = ""
	s.Result = nil
	return s, nil
}

// AvailableFilters returns the selected endpoint's parameters.
func (s Session) AvailableFilters() map[string]types.Parameter {
	if s.SelectedEndpoint == "" || s.Schema == nil {
		return nil
	}
	return s.Schema[s.SelectedEndpoint].Parameters
}

// AddFilter activates the selected endpoint's parameter key, seeded with
// its declared default. A zero or missing default seeds an empty value.
func (s Session) AddFilter(key string) (Session, error) {
	def, ok := s.AvailableFilters()[key]
	if !ok {
		return s, validation("Unknown filter", key)
	}
	if s.filterIndex(key) >= 0 {
		return s, validation("Filter already active", key)
	}

	f := types.ActiveFilter{
		Key:    key,
		Value:  defaultValue(def.Default),
		Type:   def.Type,
		Values: slices.Clone(def.Values),
	}
	s.Filters = append(slices.Clone(s.Filters), f)
	return s.rebuildQuery(), nil
}

// defaultValue renders a parameter default, treating falsy defaults
// (nil, false, 0, "") as unset.
func defaultValue(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case bool:
		if !d {
			return ""
		}
	case string:
		return d
	}
	s := types.FormatValue(v)
	if s == "0" {
		return ""
	}
	return s
}

// UpdateFilter sets the value of the active filter key. Enum filters only
// accept their declared values or an empty value.
func (s Session) UpdateFilter(key, value string) (Session, error) {
	i := s.filterIndex(key)
	if i < 0 {
		return s, validation("Filter not active", key)
	}
	f := s.Filters[i]
	if f.Type == types.ParamEnum && value != "" && !slices.Contains(f.Values, value) {
		return s, validation("Invalid value for enum filter", key+"="+value)
	}

	s.Filters = slices.Clone(s.Filters)
	s.Filters[i].Value = value
	return s.rebuildQuery(), nil
}

// RemoveFilter deactivates key. A locked query text is rebuilt only while
// other filters remain active.
func (s Session) RemoveFilter(key string) (Session, error) {
	i := s.filterIndex(key)
	if i < 0 {
		return s, validation("Filter not active", key)
	}
	s.Filters = slices.Delete(slices.Clone(s.Filters), i, i+1)
	if len(s.Filters) == 0 {
		s.Filters = nil
	}
	return s.rebuildQuery(), nil
}

func (s Session) filterIndex(key string) int {
	return slices.IndexFunc(s.Filters, func(f types.ActiveFilter) bool { return f.Key == key })
}

func (s Session) rebuildQuery() Session {
	if s.QueryLocked && len(s.Filters) > 0 {
		s.QueryText = querytext.Build(s.SelectedEndpoint, s.Filters)
	}
	return s
}

// BuiltQuery renders the current endpoint and filters as query text.
func (s Session) BuiltQuery() string {
	return querytext.Build(s.SelectedEndpoint, s.Filters)
}

// EffectiveQuery is the text an execution runs: the edited query text, or
// the built query when none was entered.
func (s Session) EffectiveQuery() string {
	if s.QueryText != "" {
		return s.QueryText
	}
	return s.BuiltQuery()
}

// SetQueryText replaces the query text.
func (s Session) SetQueryText(text string) Session {
	s.QueryText = text
	return s
}

// SetQueryLocked locks or unlocks the query text. Locking with filters
// active rebuilds the text from them.
func (s Session) SetQueryLocked(locked bool) Session {
	s.QueryLocked = locked
	return s.rebuildQuery()
}

// ApplyOutcome stores the outcome of an attempt. Result and error are
// mutually exclusive; the error wins when both are set.
func (s Session) ApplyOutcome(result *types.QueryResult, qerr *types.QueryError) Session {
	if qerr != nil {
		s.Result = nil
		s.Error = qerr
		return s
	}
	s.Result = result
	s.Error = nil
	return s
}

// ClearResults drops the latest result and error.
func (s Session) ClearResults() Session {
	s.Result = nil
	s.Error = nil
	return s
}
