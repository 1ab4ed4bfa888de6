package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

func sampleRecords() []*types.Record {
	return []*types.Record{
		types.NewRecord("id", "res_1", "status", "confirmed", "total", float64(120)),
		types.NewRecord("id", "res_2", "status", "pending", "total", float64(80)),
		types.NewRecord("id", "res_3", "status", "confirmed", "total", float64(200)),
	}
}

func TestEngine_Records_PerRecord(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), ".id", Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"res_1", "res_2", "res_3"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
	assert.Equal(t, []int{0, 1, 2}, result.MatchedIndices)
}

func TestEngine_Records_Select(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), `select(.status == "confirmed") | .id`, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"res_1", "res_3"}, result.Values)
	assert.Equal(t, []int{0, 2}, result.MatchedIndices)
}

func TestEngine_Records_Deduplicate(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), ".status", Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"confirmed", "pending"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
}

func TestEngine_Records_MaxResults(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), ".id", Options{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{"res_1", "res_2"}, result.Values)
	assert.True(t, result.Truncated)
}

func TestEngine_Records_Whole(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), "map(.total) | add", Options{Whole: true})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(400)}, result.Values)

	result, err = engine.Records(sampleRecords(), "length", Options{Whole: true})
	require.NoError(t, err)
	assert.Equal(t, []any{3}, result.Values)
}

func TestEngine_Records_ObjectExtraction(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(sampleRecords(), "{id, total}", Options{})
	require.NoError(t, err)
	require.Len(t, result.Values, 3)

	first := result.Values[0].(map[string]any)
	assert.Equal(t, "res_1", first["id"])
	assert.Equal(t, float64(120), first["total"])
}

func TestEngine_Records_NilValuesSkipped(t *testing.T) {
	engine := NewEngine()

	records := []*types.Record{
		types.NewRecord("name", "a"),
		types.NewRecord("noname", "b"),
		types.NewRecord("name", "c"),
	}
	result, err := engine.Records(records, ".name", Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, result.Values)
	assert.Equal(t, 2, result.RawCount)
}

func TestEngine_Records_ErrorsCarryRecordLabel(t *testing.T) {
	engine := NewEngine()

	records := []*types.Record{
		types.NewRecord("tags", []any{"a"}),
		types.NewRecord("other", "x"),
		types.NewRecord("tags", []any{"b"}),
	}
	result, err := engine.Records(records, ".tags[]", Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, result.Values)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "record[1]: "))
	assert.Contains(t, result.Errors[0], "missing from this record")
}

func TestEngine_Records_Empty(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Records(nil, ".id", Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Values)
	assert.Zero(t, result.RawCount)
}

func TestEngine_InvalidExpression(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Records(sampleRecords(), ".name[", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")

	_, err = engine.Query(map[string]any{"a": 1}, "invalid(", Options{})
	require.Error(t, err)
}

func TestEngine_Query_SingleValue(t *testing.T) {
	engine := NewEngine()

	input := map[string]any{"items": []any{1, 2, 2, 3}}
	result, err := engine.Query(input, ".items[]", Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, result.Values)
	assert.Equal(t, 4, result.RawCount)
}

func TestEngine_Query_BooleanAndNumbers(t *testing.T) {
	engine := NewEngine()

	input := map[string]any{"values": []any{true, false, true, 42, 42, 3.14}}
	result, err := engine.Query(input, ".values[]", Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Len(t, result.Values, 4)
}

func TestEngine_Query_Halt(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Query(map[string]any{}, `"stop" | halt_error`, Options{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "query halted")
}

func TestEngine_ValidateExpression(t *testing.T) {
	engine := NewEngine()

	assert.NoError(t, engine.ValidateExpression(".id"))
	assert.NoError(t, engine.ValidateExpression(`select(.status == "confirmed")`))

	assert.Error(t, engine.ValidateExpression(".name["))
	assert.Error(t, engine.ValidateExpression("invalid("))
}
