package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

const testToken = "tok_1234567890"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL + "/v1")}, opts...)
	return New(platform.Guesty, testToken, opts...)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}
}

func TestNew_PlatformDefaults(t *testing.T) {
	c := New(platform.Hostaway, testToken)
	assert.Equal(t, "https://api.hostaway.com/v1", c.BaseURL())
	assert.Equal(t, platform.Hostaway, c.Platform())

	h := c.Headers()
	assert.Equal(t, "Bearer "+testToken, h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "application/json", h.Get("Accept"))
}

func TestNew_UnknownPlatformFailsOnUse(t *testing.T) {
	c := New(platform.Key("airbnb"), testToken)
	_, err := c.BuildURL("/properties", http.MethodGet, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestBuildURL(t *testing.T) {
	c := New(platform.Guesty, testToken, WithBaseURL("https://api.example.com/v1/"))

	tests := []struct {
		name     string
		endpoint string
		method   string
		params   map[string]any
		want     string
	}{
		{"keeps base path", "/reservations", http.MethodGet, nil, "https://api.example.com/v1/reservations"},
		{"no leading slash", "guests", http.MethodGet, nil, "https://api.example.com/v1/guests"},
		{"absolute endpoint", "https://other.example.com/x", http.MethodGet, nil, "https://other.example.com/x"},
		{
			"skips nil and empty",
			"/listings", http.MethodGet,
			map[string]any{"city": "", "limit": 20, "active": true, "cursor": nil},
			"https://api.example.com/v1/listings?active=true&limit=20",
		},
		{"zero is kept", "/listings", http.MethodGet, map[string]any{"skip": 0}, "https://api.example.com/v1/listings?skip=0"},
		{"non-GET never appends", "/guests", http.MethodPost, map[string]any{"limit": 1}, "https://api.example.com/v1/guests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.BuildURL(tt.endpoint, tt.method, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_SendsHeadersAndBody(t *testing.T) {
	var gotAuth, gotMethod, gotBody, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	resp, err := c.Request(context.Background(), Request{
		Endpoint: "/guests",
		Method:   http.MethodPost,
		Params:   map[string]any{"limit": 5},
		Body:     map[string]any{"name": "Jane"},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsJSON())
	assert.JSONEq(t, `{"ok":true}`, string(resp.JSON))
	assert.Equal(t, "Bearer "+testToken, gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"name":"Jane"}`, gotBody)
	assert.Empty(t, gotQuery)
}

func TestRequest_TextBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "pong")
	})

	resp, err := c.Request(context.Background(), Request{Endpoint: "/ping"})
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "pong", resp.Text)
}

func TestRequest_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"message field", http.StatusUnauthorized, "application/json", `{"message":"Invalid token"}`, "Invalid token"},
		{"error field", http.StatusForbidden, "application/json", `{"error":"Forbidden scope"}`, "Forbidden scope"},
		{"nested error", http.StatusBadRequest, "application/json", `{"error":{"message":"bad filter"}}`, "bad filter"},
		{"fallback", http.StatusInternalServerError, "text/html", "<html>oops</html>", "HTTP 500: Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Request(context.Background(), Request{Endpoint: "/x"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestExecuteQuery_Normalization(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantLen   int
	}{
		{"bare array", `[{"id":1}]`, 1, 1},
		{"data envelope with total", `{"data":[{"id":1}],"total":5}`, 5, 1},
		{"data envelope with count", `{"data":[{"id":1},{"id":2}],"count":9}`, 9, 2},
		{"data envelope zero total", `{"data":[{"id":1},{"id":2}],"total":0}`, 2, 2},
		{"results envelope", `{"results":[{"id":1},{"id":2},{"id":3}]}`, 3, 3},
		{"data not array falls to results", `{"data":{"x":1},"results":[{"id":1}]}`, 1, 1},
		{"single object", `{"foo":1}`, 1, 1},
		{"null", `null`, 0, 0},
		{"scalar", `"hello"`, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, jsonHandler(tt.body))
			result, err := c.ExecuteQuery(context.Background(), "/reservations", nil)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tt.wantCount, result.RecordCount)
			assert.Len(t, result.Records, tt.wantLen)
		})
	}
}

func TestExecuteQuery_SingleObjectBecomesRecord(t *testing.T) {
	c := newTestClient(t, jsonHandler(`{"foo":1,"bar":"x"}`))
	result, err := c.ExecuteQuery(context.Background(), "/account", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"foo", "bar"}, types.RecordKeys(result.Records[0]))
}

func TestExecuteQuery_PreservesFieldOrder(t *testing.T) {
	c := newTestClient(t, jsonHandler(`[{"z":1,"a":2,"m":3}]`))
	result, err := c.ExecuteQuery(context.Background(), "/listings", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, types.RecordKeys(result.Records[0]))
}

func TestExecuteQuery_WrapsScalarElements(t *testing.T) {
	c := newTestClient(t, jsonHandler(`[1,"two"]`))
	result, err := c.ExecuteQuery(context.Background(), "/ids", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	v, ok := result.Records[1].Get("value")
	require.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestExecuteQuery_TextBodyHasNoRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})
	result, err := c.ExecuteQuery(context.Background(), "/health", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordCount)
	assert.NotNil(t, result.Records)
}

func TestExecuteQuery_Metadata(t *testing.T) {
	var gotQuery string
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}, WithClock(func() time.Time { return now }))

	params := map[string]any{"status": "confirmed", "limit": float64(10)}
	result, err := c.ExecuteQuery(context.Background(), "/reservations", params)
	require.NoError(t, err)

	assert.Equal(t, "limit=10&status=confirmed", gotQuery)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "/reservations", result.Metadata.Endpoint)
	assert.Equal(t, params, result.Metadata.Params)
	assert.Equal(t, "2024-03-01T12:00:00.000Z", result.Metadata.Timestamp)
	assert.Regexp(t, `^\d+ms$`, result.ExecutionTime)
}

func TestExecuteQuery_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid token"}`)
	})

	_, err := c.ExecuteQuery(context.Background(), "/reservations", nil)
	var qe *types.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, types.CodeAPIError, qe.Code)
	assert.Equal(t, "Invalid token", qe.Message)
	assert.Equal(t, "Failed to execute query: /reservations", qe.Details)
}

func TestExecuteQuery_InvalidJSON(t *testing.T) {
	c := newTestClient(t, jsonHandler(`{"data":`))
	_, err := c.ExecuteQuery(context.Background(), "/reservations", nil)
	var qe *types.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, types.CodeAPIError, qe.Code)
}

func TestTestConnection(t *testing.T) {
	var gotPath, gotQuery string
	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})
	assert.True(t, ok.TestConnection(context.Background()))
	assert.Equal(t, "/v1/properties", gotPath)
	assert.Equal(t, "limit=1", gotQuery)

	denied := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.False(t, denied.TestConnection(context.Background()))
}

func TestTestConnection_ProbeEndpoint(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}, WithProbeEndpoint("/listings"))
	assert.True(t, c.TestConnection(context.Background()))
	assert.Equal(t, "/v1/listings", gotPath)
}

func TestRateLimit_RespectsContext(t *testing.T) {
	c := newTestClient(t, jsonHandler(`[]`), WithRateLimit(0.001, 1))

	_, err := c.Request(context.Background(), Request{Endpoint: "/a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Request(ctx, Request{Endpoint: "/b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestDiscoverEndpoints_DefaultCatalog(t *testing.T) {
	c := New(platform.OwnerRez, testToken)
	s, err := c.DiscoverEndpoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/guests", "/messages", "/pricing", "/properties", "/reservations"}, s.Paths())
}

func TestDiscoverEndpoints_CustomProvider(t *testing.T) {
	custom := schema.NewStatic(schema.DemoCatalog())
	c := New(platform.Guesty, testToken, WithSchemaProvider(custom))
	s, err := c.DiscoverEndpoints(context.Background())
	require.NoError(t, err)
	assert.Contains(t, s, "/listings")
}
