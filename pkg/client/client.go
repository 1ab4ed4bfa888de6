package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// DefaultProbeEndpoint is the endpoint TestConnection requests.
const DefaultProbeEndpoint = "/properties"

// Client is a PMS vendor API client bound to one platform and access token.
type Client struct {
	platform   platform.Key
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	schema     schema.Provider
	probePath  string
	now        func() time.Time
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL overrides the platform's base URL (staging hosts, tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit limits outbound requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSchemaProvider sets the provider DiscoverEndpoints delegates to.
func WithSchemaProvider(p schema.Provider) Option {
	return func(c *Client) {
		c.schema = p
	}
}

// WithProbeEndpoint sets the endpoint TestConnection requests.
func WithProbeEndpoint(path string) Option {
	return func(c *Client) {
		c.probePath = path
	}
}

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for platform p authenticated with token.
// Construction never fails; an unknown platform is reported on first use.
func New(p platform.Key, token string, opts ...Option) *Client {
	c := &Client{
		platform:   p,
		token:      token,
		httpClient: http.DefaultClient,
		schema:     schema.NewStatic(schema.VendorCatalog()),
		probePath:  DefaultProbeEndpoint,
		now:        time.Now,
	}
	if cfg, ok := platform.Lookup(p); ok {
		c.baseURL = cfg.BaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform the client talks to.
func (c *Client) Platform() platform.Key {
	return c.platform
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Headers returns the headers sent with every request.
func (c *Client) Headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+c.token)
	h.Set("Accept", "application/json")
	return h
}

// Request is a logical request against the vendor API.
type Request struct {
	Endpoint string
	Method   string
	Params   map[string]any // appended to the URL for GET only
	Body     any            // JSON-encoded for non-GET requests
}

// Response is a successful vendor response. JSON is set when the response
// content type contains application/json; Text is set otherwise.
type Response struct {
	StatusCode  int
	ContentType string
	JSON        json.RawMessage
	Text        string
}

// IsJSON reports whether the body was returned as JSON.
func (r *Response) IsJSON() bool {
	return r.JSON != nil
}

// BuildURL resolves endpoint against the base URL. For GET requests every
// parameter that is neither nil nor an empty string is appended to the
// query string; other methods never carry params in the URL.
func (c *Client) BuildURL(endpoint, method string, params map[string]any) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("unknown platform %q", c.platform)
	}

	u, err := c.resolve(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	if method == http.MethodGet && len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			q.Add(k, types.FormatValue(v))
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// resolve joins endpoint onto the base URL, keeping the base path.
// Absolute endpoint URLs are used as-is.
func (c *Client) resolve(endpoint string) (*url.URL, error) {
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return u, nil
	}
	if endpoint == "" {
		return url.Parse(c.baseURL)
	}
	return url.Parse(c.baseURL + "/" + strings.TrimPrefix(endpoint, "/"))
}

// Request issues req and returns the response. Non-2xx responses are returned
// as *APIError.
func (c *Client) Request(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.BuildURL(req.Endpoint, method, req.Params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header = c.Headers()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("platform", string(c.platform)),
			slog.String("method", method),
			slog.String("endpoint", req.Endpoint),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp)
		slog.Debug("HTTP request returned error",
			slog.String("platform", string(c.platform)),
			slog.String("method", method),
			slog.String("endpoint", req.Endpoint),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, apiErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if strings.Contains(out.ContentType, "application/json") {
		if !json.Valid(data) {
			return nil, fmt.Errorf("decoding response: invalid JSON")
		}
		out.JSON = json.RawMessage(data)
	} else {
		out.Text = string(data)
	}

	slog.Debug("HTTP request completed",
		slog.String("platform", string(c.platform)),
		slog.String("method", method),
		slog.String("endpoint", req.Endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return out, nil
}

// APIError is a non-2xx response from a vendor API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorResponse is the JSON shape vendors use for errors.
type errorResponse struct {
	Message any `json:"message"`
	Error   any `json:"error"`
}

// parseError extracts an APIError from an error response. The message comes
// from the JSON "message" or "error" field, falling back to
// "HTTP <status>: <statusText>".
func parseError(resp *http.Response) error {
	fallback := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))

	body, _ := io.ReadAll(resp.Body)
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if msg := messageString(errResp.Message); msg != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
		if msg := messageString(errResp.Error); msg != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: fallback}
}

// messageString accepts string messages and nested {"message": "..."} objects.
func messageString(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case map[string]any:
		if s, ok := m["message"].(string); ok {
			return s
		}
	}
	return ""
}

func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
