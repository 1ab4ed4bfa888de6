package recordshape

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Parameters suggests filter declarations for the shape's top-level scalar
// fields. Types follow the observed values: booleans and numbers keep their
// type, dates become date parameters and enum-like strings become enums.
// Identifier fields ("id") are skipped.
func (s Shape) Parameters() map[string]types.Parameter {
	params := make(map[string]types.Parameter)
	for _, f := range s.Fields {
		if strings.ContainsAny(f.Path, ".[") || f.Path == "id" {
			continue
		}

		p := types.Parameter{
			Description: fmt.Sprintf("Observed in %d%% of records", int(math.Round(f.Frequency*100))),
		}
		switch {
		case f.Type == "boolean":
			p.Type = types.ParamBoolean
		case f.Type == "number":
			p.Type = types.ParamNumber
		case f.Type != "string":
			continue
		case f.Format == "date" || f.Format == "iso8601":
			p.Type = types.ParamDate
		case f.Format == "enum":
			p.Type = types.ParamEnum
			p.Values = f.EnumValues
		default:
			p.Type = types.ParamString
		}
		params[f.Path] = p
	}
	return params
}

// CatalogYAML renders a catalog file fragment declaring endpoint for
// platformKey with the suggested parameters, in the format read by the
// schema file provider.
func (s Shape) CatalogYAML(platformKey, endpoint string) (string, error) {
	doc := map[string]types.EndpointSchema{
		platformKey: {
			endpoint: {
				Methods:    []string{"GET"},
				Parameters: s.Parameters(),
			},
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("rendering catalog YAML: %w", err)
	}
	return string(out), nil
}
