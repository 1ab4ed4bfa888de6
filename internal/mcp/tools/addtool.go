package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// CheckOutputSchema. Registration panics on a bad output type, so broken
// tools fail at startup instead of on their first call.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

var (
	marshalerType = reflect.TypeFor[json.Marshaler]()
	timeType      = reflect.TypeFor[time.Time]()
)

// CheckOutputSchema panics when T's JSON output would not match the schema
// the SDK infers for it. Two mistakes are caught:
//
//   - fields whose type marshals itself (json.RawMessage, *types.Record).
//     The schema is inferred from the Go structure, while the wire value is
//     whatever MarshalJSON emits. Records must go out through
//     types.RecordsToAny and views.
//   - nil slices without omitzero/omitempty, which marshal as null against
//     an "array" schema.
//
// The untyped any output is accepted as is. Schema inference failures are
// left for the SDK to report.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := selfMarshalingFields(rt, nil, map[reflect.Type]bool{}); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s has self-marshaling fields at %s; "+
				"convert them to any/[]any with types.ToAny or types.RecordsToAny",
			toolName, rt, strings.Join(paths, ", "),
		))
	}

	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return
	}
	var zero map[string]any
	if err := json.Unmarshal(data, &zero); err != nil {
		return
	}
	if err := resolved.Validate(&zero); err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of %s fails its output schema: %v (json: %s); "+
				"tag nil-defaulting slices with omitzero",
			toolName, rt, err, data,
		))
	}
}

func marshalsItself(t reflect.Type) bool {
	if t == timeType {
		return false
	}
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
}

// selfMarshalingFields walks t and returns the dotted paths of values that
// implement json.Marshaler. Slice elements appear as "[]", map values as
// "[value]".
func selfMarshalingFields(t reflect.Type, path []string, seen map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if marshalsItself(t) {
		return []string{strings.Join(path, ".")}
	}
	if seen[t] {
		return nil
	}
	seen[t] = true
	defer delete(seen, t)

	path = path[:len(path):len(path)]
	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, selfMarshalingFields(f.Type, append(path, f.Name), seen)...)
		}
	case reflect.Slice, reflect.Array:
		found = selfMarshalingFields(t.Elem(), append(path, "[]"), seen)
	case reflect.Map:
		found = selfMarshalingFields(t.Elem(), append(path, "[value]"), seen)
	}
	return found
}
