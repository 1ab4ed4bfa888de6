package schema

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// DefaultCatalogKey is the catalog a File falls back to for platforms
// without their own entry.
const DefaultCatalogKey = "default"

// File serves catalogs loaded from a YAML document keyed by platform:
//
//	default:
//	  /properties:
//	    methods: [GET]
//	    parameters:
//	      limit: {type: number, default: 20}
//	guesty:
//	  /listings:
//	    methods: [GET, POST]
type File struct {
	path     string
	catalogs map[string]types.EndpointSchema
}

// LoadFile reads and validates a YAML catalog file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	return f, nil
}

// ParseFile parses and validates a YAML catalog document.
func ParseFile(data []byte) (*File, error) {
	var catalogs map[string]types.EndpointSchema
	if err := yaml.Unmarshal(data, &catalogs); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	if len(catalogs) == 0 {
		return nil, fmt.Errorf("catalog file defines no platforms")
	}

	for key, catalog := range catalogs {
		if key != DefaultCatalogKey && !platform.Key(key).Valid() {
			return nil, fmt.Errorf("unknown platform %q in catalog file", key)
		}
		if err := catalog.Validate(); err != nil {
			return nil, fmt.Errorf("catalog %q: %w", key, err)
		}
	}
	return &File{catalogs: catalogs}, nil
}

// Path returns the file the catalogs were loaded from.
func (f *File) Path() string {
	return f.path
}

// Discover returns the platform's catalog, or the default catalog.
func (f *File) Discover(ctx context.Context, p platform.Key) (types.EndpointSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c, ok := f.catalogs[string(p)]; ok {
		return c.Clone(), nil
	}
	if c, ok := f.catalogs[DefaultCatalogKey]; ok {
		return c.Clone(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrNoCatalog, p)
}
