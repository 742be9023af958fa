package transform

import (
	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

// StandardizeTypes applies the best-effort coercion policy to every
// column: if all of a column's non-nil values are text, try parsing
// them all as timestamps; if any fails, try them all as numbers; if
// that fails too, the column stays text. Columns are independent and a
// failed parse never errors.
func StandardizeTypes(records []model.Record) {
	if len(records) == 0 {
		return
	}

	for _, col := range columnNames(records) {
		standardizeColumn(records, col)
	}
}

func columnNames(records []model.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

func standardizeColumn(records []model.Record, col string) {
	// the column qualifies only if every present, non-nil value is text
	sawText := false
	for _, rec := range records {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		if _, isString := v.(string); !isString {
			return
		}
		sawText = true
	}
	if !sawText {
		return
	}

	if coerced, ok := coerceColumn(records, col, func(v interface{}) (interface{}, bool) {
		ts, ok := utils.TryTimestamp(v)
		return ts, ok
	}); ok {
		applyColumn(records, col, coerced)
		return
	}

	if coerced, ok := coerceColumn(records, col, func(v interface{}) (interface{}, bool) {
		n, ok := utils.TryNumber(v)
		return n, ok
	}); ok {
		applyColumn(records, col, coerced)
	}
}

// coerceColumn is all-or-nothing: one unparseable value leaves the
// whole column unchanged
func coerceColumn(records []model.Record, col string, try func(interface{}) (interface{}, bool)) (map[int]interface{}, bool) {
	coerced := make(map[int]interface{})
	for i, rec := range records {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		parsed, ok := try(v)
		if !ok {
			return nil, false
		}
		coerced[i] = parsed
	}
	return coerced, len(coerced) > 0
}

func applyColumn(records []model.Record, col string, values map[int]interface{}) {
	for i, v := range values {
		records[i][col] = v
	}
}
