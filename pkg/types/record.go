package types

import (
	"encoding/json"
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one result row. Field order follows the vendor payload so that
// tabular exports keep the columns in the order the vendor sent them.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord creates a record from alternating key/value arguments.
// A trailing key without a value is ignored.
func NewRecord(kv ...any) *Record {
	r := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// RecordKeys returns the record's field names in order.
func RecordKeys(r *Record) []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// RecordValues returns the record's values in field order.
func RecordValues(r *Record) []any {
	if r == nil {
		return nil
	}
	values := make([]any, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		values = append(values, p.Value)
	}
	return values
}

// RecordsToAny converts records into plain JSON values for MCP output.
// Field order is lost; pair the result with QueryResult.Columns when order matters.
func RecordsToAny(records []*Record) ([]any, error) {
	out := make([]any, 0, len(records))
	for _, r := range records {
		v, err := ToAny(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatValue renders a scalar the way the inspector prints it in query
// strings and exports: nil as empty, numbers in shortest form, booleans as
// true/false. Objects and arrays are JSON-encoded.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
