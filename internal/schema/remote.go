package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// PlatformPlaceholder is substituted with the platform key in Remote URLs.
const PlatformPlaceholder = "{platform}"

// Remote fetches catalogs from an introspection endpoint and validates them
// against the JSON Schema of types.EndpointSchema before use.
type Remote struct {
	urlTemplate string
	httpClient  *http.Client
	header      http.Header
}

// RemoteOption configures a Remote provider.
type RemoteOption func(*Remote)

// WithRemoteHTTPClient sets the HTTP client used for fetches.
func WithRemoteHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		r.httpClient = c
	}
}

// WithRemoteHeader adds a header to every fetch.
func WithRemoteHeader(key, value string) RemoteOption {
	return func(r *Remote) {
		r.header.Add(key, value)
	}
}

// NewRemote creates a provider fetching from urlTemplate, in which
// "{platform}" is replaced with the platform key.
func NewRemote(urlTemplate string, opts ...RemoteOption) *Remote {
	r := &Remote{
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		header:      make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Discover fetches, validates and decodes the platform's catalog.
func (r *Remote) Discover(ctx context.Context, p platform.Key) (types.EndpointSchema, error) {
	start := time.Now()
	url := strings.ReplaceAll(r.urlTemplate, PlatformPlaceholder, string(p))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = r.header.Clone()
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w %q", ErrNoCatalog, p)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching catalog: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	catalog, err := DecodeCatalog(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("catalog fetched",
		slog.String("platform", string(p)),
		slog.Int("endpoints", len(catalog)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return catalog, nil
}

// ValidationError lists the ways a catalog document violates the
// endpoint schema.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid catalog: " + strings.Join(e.Errors, "; ")
}

// DecodeCatalog validates a JSON catalog document and decodes it.
func DecodeCatalog(data []byte) (types.EndpointSchema, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}

	validator, err := catalogValidator()
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(doc); err != nil {
		return nil, &ValidationError{Errors: extractValidationErrors(err)}
	}

	var catalog types.EndpointSchema
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}
	return catalog, nil
}

var (
	validatorOnce sync.Once
	validator     *sjsonschema.Schema
	validatorErr  error
)

func catalogValidator() (*sjsonschema.Schema, error) {
	validatorOnce.Do(func() {
		validator, validatorErr = compileSchema(CatalogJSONSchema())
	})
	return validator, validatorErr
}

// CatalogJSONSchema reflects the JSON Schema of types.EndpointSchema.
func CatalogJSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	return r.Reflect(types.EndpointSchema{})
}

// compileSchema compiles a reflected schema into a validator.
func compileSchema(schema *jsonschema.Schema) (*sjsonschema.Schema, error) {
	// Round-trip through JSON to get a plain value the compiler accepts.
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := sjsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return compiled, nil
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractValidationErrors flattens a validation error into sorted,
// deduplicated "path: message" strings.
func extractValidationErrors(err error) []string {
	var validationErr *sjsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	errorsByPath := make(map[string][]string)
	collectErrors(validationErr, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *sjsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref and wrapper messages carry no detail.
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
