// Package recordshape infers the field layout of query result records:
// which fields appear, their JSON types, how often they are present and
// which value formats they follow.
package recordshape

import (
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Field describes one field observed across records. Nested object fields
// use dotted paths ("address.city"); fields of objects inside arrays use
// "[]" ("units[].id").
type Field struct {
	Path          string   `json:"path"`
	Type          string   `json:"type"` // string, number, boolean, object, array, null, or a "|" union
	Frequency     float64  `json:"frequency"`
	Required      bool     `json:"required,omitempty"`
	Nullable      bool     `json:"nullable,omitempty"`
	DistinctCount int      `json:"distinct_count"`
	Examples      []any    `json:"examples,omitempty"`
	Format        string   `json:"format,omitempty"` // uuid, iso8601, date, url, email, currency, enum
	EnumValues    []string `json:"enum_values,omitempty"`
}

// Shape is the inferred layout of a record set.
type Shape struct {
	Records int     `json:"records"`
	Fields  []Field `json:"fields,omitempty"`
}

const (
	maxDepth              = 3
	maxExamples           = 3
	minSamplesForFormat   = 5
	maxEnumDistinctValues = 10
)

var formats = []struct {
	name string
	re   *regexp.Regexp
}{
	{"uuid", regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)},
	{"iso8601", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2})?)?`)},
	{"date", regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)},
	{"url", regexp.MustCompile(`^https?://`)},
	{"email", regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)},
	{"currency", regexp.MustCompile(`^[$€£]\d+(\.\d+)?(/\w+)?$`)},
}

type stat struct {
	present  int
	nulls    int
	types    []string
	distinct map[string]struct{}
	examples []any
	strings  []string
}

type collector struct {
	order []string
	stats map[string]*stat
}

func (c *collector) get(path string) *stat {
	s, ok := c.stats[path]
	if !ok {
		s = &stat{distinct: make(map[string]struct{})}
		c.stats[path] = s
		c.order = append(c.order, path)
	}
	return s
}

// Infer walks every record. Fields are listed in first-seen order, so the
// first record's field order leads.
func Infer(records []*types.Record) Shape {
	shape := Shape{Records: len(records)}
	if len(records) == 0 {
		return shape
	}

	c := &collector{stats: make(map[string]*stat)}
	for _, r := range records {
		if r == nil {
			continue
		}
		for p := r.Oldest(); p != nil; p = p.Next() {
			c.observe(p.Key, p.Value, 1)
		}
	}

	shape.Fields = make([]Field, 0, len(c.order))
	for _, path := range c.order {
		shape.Fields = append(shape.Fields, c.stats[path].field(path, len(records)))
	}
	return shape
}

func (c *collector) observe(path string, v any, depth int) {
	s := c.get(path)
	s.present++
	if v == nil {
		s.nulls++
		return
	}

	if kind := jsonType(v); !slices.Contains(s.types, kind) {
		s.types = append(s.types, kind)
	}

	key := types.FormatValue(v)
	_, seen := s.distinct[key]
	s.distinct[key] = struct{}{}

	// Composite values are described by their child fields rather than
	// by examples.
	switch val := v.(type) {
	case map[string]any:
		if depth < maxDepth {
			for _, k := range slices.Sorted(maps.Keys(val)) {
				c.observe(path+"."+k, val[k], depth+1)
			}
		}
		return
	case *types.Record:
		if depth < maxDepth {
			for p := val.Oldest(); p != nil; p = p.Next() {
				c.observe(path+"."+p.Key, p.Value, depth+1)
			}
		}
		return
	case []any:
		if depth < maxDepth {
			for _, item := range val {
				if obj, ok := item.(map[string]any); ok {
					for _, k := range slices.Sorted(maps.Keys(obj)) {
						c.observe(path+"[]."+k, obj[k], depth+1)
					}
				}
			}
		}
		return
	case string:
		s.strings = append(s.strings, val)
	}

	if !seen && len(s.examples) < maxExamples {
		s.examples = append(s.examples, v)
	}
}

func (s *stat) field(path string, total int) Field {
	f := Field{
		Path:          path,
		Type:          "null",
		Frequency:     float64(s.present) / float64(total),
		Required:      s.present == total && s.nulls == 0,
		Nullable:      s.nulls > 0,
		DistinctCount: len(s.distinct),
		Examples:      s.examples,
	}
	if len(s.types) > 0 {
		f.Type = strings.Join(s.types, "|")
	}
	if f.Type == "string" && len(s.strings) >= minSamplesForFormat {
		f.Format, f.EnumValues = detectFormat(s.strings)
	}
	return f
}

// detectFormat reports the format every value follows. A field with few
// distinct values that repeat is reported as an enum.
func detectFormat(values []string) (string, []string) {
	for _, format := range formats {
		if allMatch(format.re, values) {
			return format.name, nil
		}
	}

	distinct := make(map[string]struct{})
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if len(distinct) <= maxEnumDistinctValues && len(distinct) < len(values) {
		enum := make([]string, 0, len(distinct))
		for v := range distinct {
			enum = append(enum, v)
		}
		sort.Strings(enum)
		return "enum", enum
	}
	return "", nil
}

func allMatch(re *regexp.Regexp, values []string) bool {
	for _, v := range values {
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int64, int32:
		return "number"
	case map[string]any, *types.Record:
		return "object"
	case []any:
		return "array"
	default:
		return "unknown"
	}
}
