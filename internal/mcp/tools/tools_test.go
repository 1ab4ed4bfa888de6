package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/internal/config"
	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/internal/query"
	"github.com/usestring/pmsinspect-mcp/internal/session"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

const testToken = "tok_1234567890"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T, fail bool) *Deps {
	t.Helper()
	cfg := config.Load()
	cfg.ExportDir = t.TempDir()
	return &Deps{
		Sessions: session.NewManager(session.Options{
			Mode: session.ModeMock,
			Mock: mock.NewRunner(
				mock.WithGenerator(mock.NewSeededGenerator(7, func() time.Time { return fixedNow })),
				mock.WithDecider(mock.Always(fail)),
				mock.WithDelay(0),
			),
			Now: func() time.Time { return fixedNow },
		}),
		Query:  query.NewEngine(),
		Config: cfg,
		Now:    func() time.Time { return fixedNow },
	}
}

func connect(t *testing.T, d *Deps) ConnectOutput {
	t.Helper()
	_, out, err := ToolConnect(d)(context.Background(), nil, ConnectInput{Token: testToken})
	require.NoError(t, err)
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	assert.Equal(t, code, coded.Code)
}

func TestPlatformsList(t *testing.T) {
	d := newTestDeps(t, false)
	_, out, err := ToolPlatformsList(d)(context.Background(), nil, PlatformsListInput{})
	require.NoError(t, err)

	assert.Equal(t, "mock", out.Mode)
	assert.Equal(t, "guesty", out.Selected)
	require.Len(t, out.Platforms, 4)
	assert.Equal(t, "Guesty", out.Platforms[0].Name)
	assert.True(t, out.Platforms[0].Selected)
	assert.Equal(t, "disconnected", out.Platforms[0].Status)
}

func TestPlatformSelect(t *testing.T) {
	d := newTestDeps(t, false)
	_, out, err := ToolPlatformSelect(d)(context.Background(), nil, PlatformSelectInput{Platform: "Hostaway", Environment: "sandbox"})
	require.NoError(t, err)
	assert.Equal(t, "hostaway", out.Platform.Key)
	assert.Equal(t, "Sandbox", out.Platform.Environment)
	assert.True(t, out.Platform.Selected)

	_, _, err = ToolPlatformSelect(d)(context.Background(), nil, PlatformSelectInput{Platform: "airbnb"})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = ToolPlatformSelect(d)(context.Background(), nil, PlatformSelectInput{Platform: "guesty", Environment: "Live"})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestConnect(t *testing.T) {
	d := newTestDeps(t, false)
	out := connect(t, d)
	assert.Equal(t, "connected", out.Platform.Status)
	assert.Len(t, out.Endpoints, 4)
	assert.Equal(t, "Connected to Guesty (Production), 4 endpoints discovered", out.Summary)
}

func TestConnect_ShortToken(t *testing.T) {
	d := newTestDeps(t, false)
	_, _, err := ToolConnect(d)(context.Background(), nil, ConnectInput{Token: "short"})
	requireCode(t, err, ErrCodeInvalidInput)
	assert.Contains(t, err.Error(), session.TokenTooShortMessage)
}

func TestDiscover_NotConnected(t *testing.T) {
	d := newTestDeps(t, false)
	_, _, err := ToolDiscoverEndpoints(d)(context.Background(), nil, DiscoverInput{})
	requireCode(t, err, ErrCodeNotConnected)
}

func TestWorkspaceFlow(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)

	_, ws, err := ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/reservations"})
	require.NoError(t, err)
	assert.Equal(t, "/reservations", ws.Workspace.SelectedEndpoint)
	assert.Len(t, ws.Workspace.AvailableFilters, 5)

	_, ws, err = ToolFilterAdd(d)(ctx, nil, FilterAddInput{Key: "status", Value: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "GET /reservations?status=confirmed", ws.Workspace.QueryText)

	_, _, err = ToolFilterUpdate(d)(ctx, nil, FilterUpdateInput{Key: "status", Value: "archived"})
	requireCode(t, err, ErrCodeInvalidInput)

	_, ws, err = ToolFilterAdd(d)(ctx, nil, FilterAddInput{Key: "limit"})
	require.NoError(t, err)
	assert.Equal(t, "GET /reservations?status=confirmed&limit=20", ws.Workspace.QueryText)

	_, ws, err = ToolFilterRemove(d)(ctx, nil, FilterRemoveInput{Key: "status"})
	require.NoError(t, err)
	assert.Equal(t, "GET /reservations?limit=20", ws.Workspace.QueryText)

	_, built, err := ToolQueryBuild(d)(ctx, nil, QueryBuildInput{})
	require.NoError(t, err)
	assert.Equal(t, "GET", built.Method)
	assert.Equal(t, "/reservations", built.Endpoint)
	assert.Equal(t, map[string]any{"limit": float64(20)}, built.Params)
}

func TestQuerySet_UnlockKeepsEditedText(t *testing.T) {
	const edited = "GET /reservations?status=pending&limit=5"
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)

	_, _, err := ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/reservations"})
	require.NoError(t, err)

	unlock := false
	_, ws, err := ToolQuerySet(d)(ctx, nil, QuerySetInput{Text: edited, Lock: &unlock})
	require.NoError(t, err)
	assert.False(t, ws.Workspace.QueryLocked)
	assert.Equal(t, edited, ws.Workspace.QueryText)

	_, ws, err = ToolFilterAdd(d)(ctx, nil, FilterAddInput{Key: "status", Value: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, edited, ws.Workspace.QueryText)
	assert.Equal(t, "GET /reservations?status=confirmed", ws.Workspace.BuiltQuery)

	lock := true
	_, ws, err = ToolQuerySet(d)(ctx, nil, QuerySetInput{Text: edited, Lock: &lock})
	require.NoError(t, err)
	assert.True(t, ws.Workspace.QueryLocked)
	assert.Equal(t, "GET /reservations?status=confirmed", ws.Workspace.QueryText)
}

func TestQuerySet_LockedByDefault(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)

	_, _, err := ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/reservations"})
	require.NoError(t, err)
	_, ws, err := ToolQuerySet(d)(ctx, nil, QuerySetInput{Text: "GET /reservations?limit=1"})
	require.NoError(t, err)
	assert.True(t, ws.Workspace.QueryLocked)

	_, ws, err = ToolFilterAdd(d)(ctx, nil, FilterAddInput{Key: "status", Value: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "GET /reservations?status=confirmed", ws.Workspace.QueryText)
}

func TestQueryBuild_NonGetHint(t *testing.T) {
	d := newTestDeps(t, false)
	_, out, err := ToolQueryBuild(d)(context.Background(), nil, QueryBuildInput{Text: "DELETE /guests?id=7"})
	require.NoError(t, err)
	assert.Equal(t, "DELETE", out.Method)
	require.Len(t, out.Hints, 1)
	assert.Contains(t, out.Hints[0], "always issues GET")
}

func TestQueryBuild_UndeclaredMethodHint(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)
	_, _, err := ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/guests"})
	require.NoError(t, err)

	_, out, err := ToolQueryBuild(d)(ctx, nil, QueryBuildInput{Text: "DELETE /guests?id=7"})
	require.NoError(t, err)
	require.Len(t, out.Hints, 2)
	assert.Equal(t, "/guests does not declare DELETE (declared: GET, POST, PUT).", out.Hints[1])

	_, out, err = ToolQueryBuild(d)(ctx, nil, QueryBuildInput{Text: "PUT /guests"})
	require.NoError(t, err)
	assert.Len(t, out.Hints, 1)
}

func TestQueryExecute_AndResults(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)
	_, _, err := ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/listings"})
	require.NoError(t, err)

	_, out, err := ToolQueryExecute(d)(ctx, nil, QueryExecuteInput{MaxRecords: 3})
	require.NoError(t, err)
	require.Nil(t, out.Error)
	require.NotNil(t, out.Result)
	assert.Equal(t, "GET /listings", out.Query)
	assert.Equal(t, 3, out.Result.Returned)
	assert.True(t, out.Result.Truncated)
	assert.Equal(t, []string{"id", "name", "city", "bedrooms", "status", "price"}, out.Result.Columns)
	assert.Equal(t, "pmsinspect://results/guesty", out.Resource.URI)
	assert.Contains(t, out.Summary, "records returned in")

	total := out.Result.Count

	_, page, err := ToolResultsGet(d)(ctx, nil, ResultsGetInput{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Result.Returned)
	first := page.Result.Records[0].(map[string]any)
	assert.Equal(t, "prop_3", first["id"])

	_, q, err := ToolResultsQuery(d)(ctx, nil, ResultsQueryInput{Expression: ".id"})
	require.NoError(t, err)
	assert.Len(t, q.Values, total)

	_, q, err = ToolResultsQuery(d)(ctx, nil, ResultsQueryInput{Expression: "length", Whole: true})
	require.NoError(t, err)
	assert.Equal(t, []any{total}, q.Values)

	_, _, err = ToolResultsQuery(d)(ctx, nil, ResultsQueryInput{Expression: ".id["})
	requireCode(t, err, ErrCodeInvalidInput)

	_, hist, err := ToolHistoryList(d)(ctx, nil, HistoryListInput{Platform: "guesty"})
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "/listings", hist.Entries[0].Endpoint)
	assert.Equal(t, 50, hist.Capacity)

	_, cleared, err := ToolResultsClear(d)(ctx, nil, ResultsClearInput{})
	require.NoError(t, err)
	assert.False(t, cleared.Workspace.HasResult)

	_, _, err = ToolResultsQuery(d)(ctx, nil, ResultsQueryInput{Expression: ".id"})
	requireCode(t, err, ErrCodeNotFound)
}

func TestQueryExecute_MockFailureIsOutput(t *testing.T) {
	d := newTestDeps(t, true)
	connect(t, d)

	_, out, err := ToolQueryExecute(d)(context.Background(), nil, QueryExecuteInput{})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, types.CodeMockError, out.Error.Code)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Summary, "Query failed (ERROR)")

	_, page, err := ToolResultsGet(d)(context.Background(), nil, ResultsGetInput{})
	require.NoError(t, err)
	assert.Nil(t, page.Result)
	assert.Equal(t, out.Error, page.Error)
}

func TestQueryExecute_Disconnected(t *testing.T) {
	d := newTestDeps(t, false)
	_, out, err := ToolQueryExecute(d)(context.Background(), nil, QueryExecuteInput{Text: "GET /listings?city=Miami"})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, types.CodeConnectionError, out.Error.Code)
	assert.Equal(t, "GET /listings?city=Miami", out.History.Query)
}

func TestQueryExecute_EmptyQuery(t *testing.T) {
	d := newTestDeps(t, false)
	_, _, err := ToolQueryExecute(d)(context.Background(), nil, QueryExecuteInput{})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestResultsExport(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)
	_, _, err := ToolQueryExecute(d)(ctx, nil, QueryExecuteInput{Text: "GET /guests"})
	require.NoError(t, err)

	_, out, err := ToolResultsExport(d)(ctx, nil, ResultsExportInput{Format: "excel", Write: true})
	require.NoError(t, err)
	assert.Equal(t, "tsv", out.Format)
	assert.Equal(t, "export_1709294400000.tsv", out.Filename)
	assert.Equal(t, filepath.Join(d.Config.ExportDir, out.Filename), out.Path)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, out.Content, string(data))

	_, _, err = ToolResultsExport(d)(ctx, nil, ResultsExportInput{Format: "xml"})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestResultsExport_NoResult(t *testing.T) {
	d := newTestDeps(t, false)
	_, _, err := ToolResultsExport(d)(context.Background(), nil, ResultsExportInput{})
	requireCode(t, err, ErrCodeNotFound)
}

func TestDisconnect(t *testing.T) {
	d := newTestDeps(t, false)
	connect(t, d)

	_, out, err := ToolDisconnect(d)(context.Background(), nil, DisconnectInput{})
	require.NoError(t, err)
	assert.Equal(t, "disconnected", out.Platform.Status)
	assert.Zero(t, out.Platform.EndpointCount)
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "1 record", countLabel(1, "record", "records"))
	assert.Equal(t, "1,234 records", countLabel(1234, "record", "records"))
}

func TestWrapError(t *testing.T) {
	requireCode(t, WrapError(&types.QueryError{Code: types.CodeConnectionError}), ErrCodeNotConnected)
	requireCode(t, WrapError(session.ErrStale), ErrCodeStale)
	requireCode(t, WrapError(context.DeadlineExceeded), ErrCodeTimeout)
	requireCode(t, WrapError(errors.New("boom")), ErrCodeAPIError)
	assert.NoError(t, WrapError(nil))
}

func TestResultsShape(t *testing.T) {
	d := newTestDeps(t, false)
	ctx := context.Background()
	connect(t, d)

	_, _, err := ToolResultsShape(d)(ctx, nil, ResultsShapeInput{})
	requireCode(t, err, ErrCodeNotFound)

	_, _, err = ToolEndpointSelect(d)(ctx, nil, EndpointSelectInput{Endpoint: "/listings"})
	require.NoError(t, err)
	_, exec, err := ToolQueryExecute(d)(ctx, nil, QueryExecuteInput{})
	require.NoError(t, err)
	require.NotNil(t, exec.Result)

	_, out, err := ToolResultsShape(d)(ctx, nil, ResultsShapeInput{Platform: "guesty"})
	require.NoError(t, err)
	assert.Equal(t, "/listings", out.Endpoint)
	assert.Equal(t, exec.Result.Count, out.Records)
	require.Len(t, out.Fields, 6)
	assert.Equal(t, "id", out.Fields[0].Path)

	byPath := make(map[string]string)
	for _, f := range out.Fields {
		assert.True(t, f.Required, f.Path)
		byPath[f.Path] = f.Format
	}
	assert.Equal(t, "enum", byPath["status"])
	assert.Equal(t, "currency", byPath["price"])

	assert.Contains(t, out.CatalogYAML, "guesty:")
	assert.Contains(t, out.CatalogYAML, "/listings:")
	assert.Contains(t, out.CatalogYAML, "type: enum")
	assert.NotContains(t, out.CatalogYAML, "id:")
}
