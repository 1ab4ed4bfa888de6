package types

import (
	"fmt"
	"net/http"
	"sort"
)

// ParameterType is the declared type of an endpoint parameter.
type ParameterType string

// Parameter types.
const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
	ParamDate    ParameterType = "date"
	ParamEnum    ParameterType = "enum"
)

// Valid reports whether t is a known parameter type.
func (t ParameterType) Valid() bool {
	switch t {
	case ParamString, ParamNumber, ParamBoolean, ParamDate, ParamEnum:
		return true
	}
	return false
}

// Parameter declares one query parameter accepted by an endpoint.
type Parameter struct {
	Type        ParameterType `json:"type" yaml:"type" jsonschema:"enum=string,enum=number,enum=boolean,enum=date,enum=enum"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any           `json:"default,omitempty" yaml:"default,omitempty"`
	Values      []string      `json:"values,omitempty" yaml:"values,omitempty"` // enum only
}

// Endpoint declares a vendor resource path.
type Endpoint struct {
	Methods     []string             `json:"methods" yaml:"methods"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  map[string]Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// EndpointSchema maps endpoint paths (e.g. "/reservations") to their declarations.
type EndpointSchema map[string]Endpoint

// Paths returns the endpoint paths in sorted order.
func (s EndpointSchema) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ParameterNames returns the endpoint's parameter names in sorted order.
func (e Endpoint) ParameterNames() []string {
	names := make([]string, 0, len(e.Parameters))
	for n := range e.Parameters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Supports reports whether the endpoint accepts the given HTTP method.
func (e Endpoint) Supports(method string) bool {
	for _, m := range e.Methods {
		if m == method {
			return true
		}
	}
	return false
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Validate checks the schema's structural invariants: known methods and
// parameter types, and enum values present exactly when the type is enum.
func (s EndpointSchema) Validate() error {
	for _, path := range s.Paths() {
		ep := s[path]
		if len(path) == 0 || path[0] != '/' {
			return fmt.Errorf("endpoint %q: path must start with '/'", path)
		}
		for _, m := range ep.Methods {
			if !knownMethods[m] {
				return fmt.Errorf("endpoint %q: unsupported method %q", path, m)
			}
		}
		for _, name := range ep.ParameterNames() {
			p := ep.Parameters[name]
			if !p.Type.Valid() {
				return fmt.Errorf("endpoint %q parameter %q: unknown type %q", path, name, p.Type)
			}
			if p.Type == ParamEnum && len(p.Values) == 0 {
				return fmt.Errorf("endpoint %q parameter %q: enum requires values", path, name)
			}
			if p.Type != ParamEnum && len(p.Values) > 0 {
				return fmt.Errorf("endpoint %q parameter %q: values only allowed for enum", path, name)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the schema.
func (s EndpointSchema) Clone() EndpointSchema {
	if s == nil {
		return nil
	}
	out := make(EndpointSchema, len(s))
	for path, ep := range s {
		cp := Endpoint{
			Methods:     append([]string(nil), ep.Methods...),
			Description: ep.Description,
		}
		if ep.Parameters != nil {
			cp.Parameters = make(map[string]Parameter, len(ep.Parameters))
			for name, p := range ep.Parameters {
				p.Values = append([]string(nil), p.Values...)
				cp.Parameters[name] = p
			}
		}
		out[path] = cp
	}
	return out
}
