package sfmcp

import (
	"encoding/json"
	"fmt"
)

// NoResultsMarker is the canonical text for empty results.
const NoResultsMarker = "No results found"

// FormatResult renders a heterogeneous result value as bounded,
// human-readable text. It never fails: values that cannot be serialized fall
// back to fmt.Sprintf.
//
// Arrays longer than threshold are truncated to sample rows plus a trailing
// count of omitted rows, so the output always states how much was cut.
func FormatResult(v any, threshold, sample int) string {
	if threshold <= 0 {
		threshold = defaultRowThreshold
	}
	if sample <= 0 {
		sample = defaultSampleRows
	}

	switch val := v.(type) {
	case nil:
		return NoResultsMarker
	case string:
		if val == "" {
			return NoResultsMarker
		}
		return val
	case []map[string]any:
		return formatRows(val, threshold, sample)
	case []any:
		rows := make([]map[string]any, 0, len(val))
		generic := false
		for _, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				generic = true
				break
			}
			rows = append(rows, m)
		}
		if !generic {
			return formatRows(rows, threshold, sample)
		}
		if len(val) == 0 {
			return NoResultsMarker
		}
		return prettyJSON(val)
	case *RowSet:
		if val == nil {
			return NoResultsMarker
		}
		if len(val.Rows) == 0 && val.RowsAffected > 0 {
			return prettyJSON(WriteResult{AffectedRows: val.RowsAffected})
		}
		return formatRows(val.Rows, threshold, sample)
	default:
		return prettyJSON(v)
	}
}

func formatRows(rows []map[string]any, threshold, sample int) string {
	if len(rows) == 0 {
		return NoResultsMarker
	}
	if len(rows) <= threshold {
		return prettyJSON(rows)
	}
	omitted := len(rows) - sample
	return fmt.Sprintf("%s\n... and %d more rows", prettyJSON(rows[:sample]), omitted)
}

// prettyJSON serializes v as indented JSON, falling back to a best-effort
// string coercion on marshal failure.
func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
