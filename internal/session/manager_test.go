package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/pkg/client"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

const goodToken = "tok_1234567890"

func newMockManager(t *testing.T, fail bool, delay time.Duration) *Manager {
	t.Helper()
	return NewManager(Options{
		Mode: ModeMock,
		Mock: mock.NewRunner(
			mock.WithGenerator(mock.NewSeededGenerator(1, nil)),
			mock.WithDecider(mock.Always(fail)),
			mock.WithDelay(delay),
		),
	})
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMock, m)

	m, err = ParseMode("LIVE")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, m)

	_, err = ParseMode("replay")
	require.Error(t, err)
}

func TestNewManager_Defaults(t *testing.T) {
	m := newMockManager(t, false, 0)
	state := m.Snapshot()
	assert.Equal(t, platform.Guesty, state.Selected)
	assert.Len(t, state.Sessions, 4)
	assert.Equal(t, "Production", state.Sessions[platform.Guesty].Environment)
	assert.Equal(t, "Live", state.Sessions[platform.Hospitable].Environment)
	for _, s := range state.Sessions {
		assert.False(t, s.Connected())
	}
}

func TestManager_ShortTokenNeverConnects(t *testing.T) {
	m := newMockManager(t, false, 0)

	s, err := m.Connect(context.Background(), platform.Guesty, "short")
	var qe *types.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, TokenTooShortMessage, qe.Message)
	assert.False(t, s.Connected())
	assert.Equal(t, TokenTooShortMessage, s.Connection.Error)
}

func TestManager_MockConnectDiscoversAndExecutes(t *testing.T) {
	m := newMockManager(t, false, 0)
	ctx := context.Background()

	s, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)
	assert.True(t, s.Connected())
	assert.Equal(t, schema.DemoCatalog().Paths(), s.Schema.Paths())
	assert.Equal(t, "/calendar", s.SelectedEndpoint)

	_, err = m.SelectEndpoint(platform.Guesty, "/listings")
	require.NoError(t, err)
	_, err = m.AddFilter(platform.Guesty, "city")
	require.NoError(t, err)
	_, err = m.UpdateFilter(platform.Guesty, "city", "Miami")
	require.NoError(t, err)

	out, err := m.Execute(ctx, platform.Guesty)
	require.NoError(t, err)
	require.Nil(t, out.Error)
	assert.Equal(t, "GET /listings?city=Miami", out.History.Query)

	s, err = m.Session(platform.Guesty)
	require.NoError(t, err)
	require.NotNil(t, s.Result)
	assert.Nil(t, s.Error)
	id, _ := s.Result.Records[0].Get("id")
	assert.Equal(t, "prop_1", id)
}

func TestManager_MockFailureStoresError(t *testing.T) {
	m := newMockManager(t, true, 0)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)

	out, err := m.Execute(ctx, platform.Guesty)
	require.NoError(t, err)
	require.NotNil(t, out.Error)

	s, _ := m.Session(platform.Guesty)
	assert.Nil(t, s.Result)
	assert.Equal(t, types.CodeMockError, s.Error.Code)
}

func TestManager_ExecuteWhileDisconnected(t *testing.T) {
	m := newMockManager(t, false, 0)
	_, err := m.SetQueryText(platform.Guesty, "GET /listings")
	require.NoError(t, err)

	out, err := m.Execute(context.Background(), platform.Guesty)
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, types.CodeConnectionError, out.Error.Code)
	assert.Equal(t, 1, m.History().Len())
}

func TestManager_ExecuteEmptyQuery(t *testing.T) {
	m := newMockManager(t, false, 0)
	_, err := m.Execute(context.Background(), platform.Guesty)
	require.Error(t, err)
	assert.Equal(t, 0, m.History().Len())
}

func TestManager_DisconnectClearsState(t *testing.T) {
	m := newMockManager(t, false, 0)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)
	_, err = m.AddFilter(platform.Guesty, "propertyId")
	require.NoError(t, err)
	_, err = m.Execute(ctx, platform.Guesty)
	require.NoError(t, err)

	s, err := m.Disconnect(platform.Guesty)
	require.NoError(t, err)
	assert.False(t, s.Connected())
	assert.Nil(t, s.Schema)
	assert.Empty(t, s.SelectedEndpoint)
	assert.Nil(t, s.Filters)
	assert.Nil(t, s.Result)
	assert.Nil(t, s.Error)
}

func TestManager_StaleOutcomeDiscardedAfterDisconnect(t *testing.T) {
	m := newMockManager(t, false, 100*time.Millisecond)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		out, err := m.Execute(ctx, platform.Guesty)
		assert.NoError(t, err)
		assert.True(t, out.Superseded)
	}()

	time.Sleep(20 * time.Millisecond)
	_, err = m.Disconnect(platform.Guesty)
	require.NoError(t, err)
	<-done

	s, _ := m.Session(platform.Guesty)
	assert.Nil(t, s.Result)
	assert.Nil(t, s.Error)
}

func TestManager_SelectPlatformResetsWorkspace(t *testing.T) {
	m := newMockManager(t, false, 0)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Hostaway, goodToken)
	require.NoError(t, err)
	_, err = m.AddFilter(platform.Hostaway, "propertyId")
	require.NoError(t, err)

	s, err := m.SelectPlatform(platform.Hostaway)
	require.NoError(t, err)
	assert.Equal(t, platform.Hostaway, m.Selected())
	assert.True(t, s.Connected())
	assert.NotNil(t, s.Schema)
	assert.Nil(t, s.Filters)
	assert.Empty(t, s.SelectedEndpoint)

	_, err = m.SelectPlatform("airbnb")
	require.Error(t, err)
}

func TestManager_Resolve(t *testing.T) {
	m := newMockManager(t, false, 0)
	assert.Equal(t, platform.Guesty, m.Resolve(""))
	assert.Equal(t, platform.OwnerRez, m.Resolve(platform.OwnerRez))
}

func TestManager_DiscoverRequiresConnection(t *testing.T) {
	m := newMockManager(t, false, 0)
	_, err := m.Discover(context.Background(), platform.Guesty, false)
	var qe *types.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, types.CodeConnectionError, qe.Code)
}

func newVendor(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+goodToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"results":[{"id":"r1","status":"confirmed"}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newLiveManager(srv *httptest.Server, cached *schema.Cached) *Manager {
	return NewManager(Options{
		Mode:  ModeLive,
		Cache: cached,
		NewClient: func(p platform.Key, token string) *client.Client {
			opts := []client.Option{client.WithBaseURL(srv.URL)}
			if cached != nil {
				opts = append(opts, client.WithSchemaProvider(cached))
			}
			return client.New(p, token, opts...)
		},
	})
}

func TestManager_LiveConnectAndExecute(t *testing.T) {
	srv, _ := newVendor(t, http.StatusOK)
	m := newLiveManager(srv, nil)
	ctx := context.Background()

	s, err := m.Connect(ctx, platform.OwnerRez, goodToken)
	require.NoError(t, err)
	assert.True(t, s.Connected())
	assert.Equal(t, schema.VendorCatalog().Paths(), s.Schema.Paths())

	_, err = m.SelectEndpoint(platform.OwnerRez, "/reservations")
	require.NoError(t, err)
	out, err := m.Execute(ctx, platform.OwnerRez)
	require.NoError(t, err)
	require.Nil(t, out.Error)
	assert.Equal(t, 1, out.Result.RecordCount)
	require.NotNil(t, out.Result.Metadata)
	assert.Equal(t, "/reservations", out.Result.Metadata.Endpoint)
}

func TestManager_LiveRejectedToken(t *testing.T) {
	srv, hits := newVendor(t, http.StatusOK)
	m := newLiveManager(srv, nil)

	s, err := m.Connect(context.Background(), platform.Guesty, "wrong_token_value")
	var qe *types.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, types.CodeConnectionError, qe.Code)
	assert.Equal(t, StatusError, s.Connection.Status)
	assert.Equal(t, int32(1), hits.Load())

	_, err = m.SetQueryText(platform.Guesty, "GET /properties")
	require.NoError(t, err)
	out, err := m.Execute(context.Background(), platform.Guesty)
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, types.CodeConnectionError, out.Error.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestManager_ShortTokenNeverReachesVendor(t *testing.T) {
	srv, hits := newVendor(t, http.StatusOK)
	m := newLiveManager(srv, nil)

	_, err := m.Connect(context.Background(), platform.Guesty, "abc")
	require.Error(t, err)
	assert.Equal(t, int32(0), hits.Load())
}

func TestManager_DisconnectInvalidatesCache(t *testing.T) {
	srv, _ := newVendor(t, http.StatusOK)
	cached, err := schema.NewCached(schema.NewStatic(schema.VendorCatalog()), 8)
	require.NoError(t, err)
	m := newLiveManager(srv, cached)
	ctx := context.Background()

	_, err = m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())

	_, err = m.Disconnect(platform.Guesty)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.Len())
}

func TestManager_CancelQuery(t *testing.T) {
	m := newMockManager(t, false, time.Second)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		out, err := m.Execute(ctx, platform.Guesty)
		assert.NoError(t, err)
		assert.True(t, out.Superseded)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.CancelQuery(platform.Guesty))

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("cancelled query did not return")
	}

	s, _ := m.Session(platform.Guesty)
	assert.Nil(t, s.Result)
	assert.Equal(t, 1, m.History().Len())
}

func TestManager_CancelQueryUnknownPlatform(t *testing.T) {
	m := newMockManager(t, false, 0)
	require.Error(t, m.CancelQuery(platform.Key("smoobu")))
}

func TestManager_PlatformsQueryIndependently(t *testing.T) {
	m := newMockManager(t, false, 300*time.Millisecond)
	ctx := context.Background()
	_, err := m.Connect(ctx, platform.Guesty, goodToken)
	require.NoError(t, err)
	_, err = m.Connect(ctx, platform.Hostaway, goodToken)
	require.NoError(t, err)

	type result struct {
		superseded bool
		hasResult  bool
		err        error
	}
	guesty := make(chan result, 1)
	go func() {
		out, err := m.Execute(ctx, platform.Guesty)
		guesty <- result{out.Superseded, out.Result != nil, err}
	}()

	time.Sleep(50 * time.Millisecond)
	out, err := m.Execute(ctx, platform.Hostaway)
	require.NoError(t, err)
	assert.False(t, out.Superseded)
	assert.NotNil(t, out.Result)

	var g result
	select {
	case g = <-guesty:
	case <-time.After(2 * time.Second):
		t.Fatal("guesty query did not return")
	}
	require.NoError(t, g.err)
	assert.False(t, g.superseded)
	assert.True(t, g.hasResult)

	for _, p := range []platform.Key{platform.Guesty, platform.Hostaway} {
		s, err := m.Session(p)
		require.NoError(t, err)
		assert.NotNil(t, s.Result, p)
		assert.Nil(t, s.Error, p)
	}
	assert.Equal(t, 2, m.History().Len())
}

func TestManager_ConnectLogsMaskedToken(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	m := newMockManager(t, false, 0)
	_, err := m.Connect(context.Background(), platform.Guesty, goodToken)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "token=****7890")
	assert.NotContains(t, buf.String(), goodToken)
}
