// Package export serializes query result records as CSV, tab-separated
// ("Excel") text or pretty-printed JSON, and writes export artifacts.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Format is an export format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. Empty input selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTSV, FormatJSON:
		return f, nil
	case "excel":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (valid: csv, tsv, json)", s)
	}
}

// MIMEType returns the content type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatTSV:
		return "text/tab-separated-values"
	default:
		return "text/csv"
	}
}

// CSV renders records as comma-separated text. The header row is the first
// record's field names; every row emits its own values in its own field
// order. String values containing a comma are wrapped in double quotes;
// embedded quotes are not escaped.
func CSV(records []*types.Record) string {
	return render(records, ",", func(s string) string {
		if strings.Contains(s, ",") {
			return `"` + s + `"`
		}
		return s
	})
}

// TSV renders records as tab-separated text suitable for pasting into a
// spreadsheet. String values containing a tab or newline are wrapped in
// double quotes with embedded quotes doubled; other strings are untouched.
func TSV(records []*types.Record) string {
	return render(records, "\t", func(s string) string {
		if strings.ContainsAny(s, "\t\n") {
			return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
		}
		return s
	})
}

// JSON renders records as a JSON array indented by two spaces.
// Empty input renders as "[]".
func JSON(records []*types.Record) (string, error) {
	if records == nil {
		records = []*types.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Render dispatches to the renderer for format.
func Render(format Format, records []*types.Record) (string, error) {
	switch format {
	case FormatCSV:
		return CSV(records), nil
	case FormatTSV:
		return TSV(records), nil
	case FormatJSON:
		return JSON(records)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// render joins records with sep. quote is applied to string values only.
func render(records []*types.Record, sep string, quote func(string) string) string {
	if len(records) == 0 {
		return ""
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(types.RecordKeys(records[0]), sep))

	for _, r := range records {
		values := types.RecordValues(r)
		cells := make([]string, len(values))
		for i, v := range values {
			if s, ok := v.(string); ok {
				cells[i] = quote(s)
				continue
			}
			cells[i] = types.FormatValue(v)
		}
		lines = append(lines, strings.Join(cells, sep))
	}

	return strings.Join(lines, "\n")
}

// Filename returns the artifact name for an export taken at now,
// e.g. "export_1717171717171.csv".
func Filename(format Format, now time.Time) string {
	return fmt.Sprintf("export_%d.%s", now.UnixMilli(), format)
}

// Write renders records and writes them to dir under Filename.
// Returns the written file's path.
func Write(dir string, format Format, records []*types.Record, now time.Time) (string, error) {
	content, err := Render(format, records)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(format, now))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
