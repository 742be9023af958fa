package transform

import (
	"errors"
	"fmt"
	"sort"

	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

// ErrMissingColumn is returned when a schema-required column is absent
var ErrMissingColumn = errors.New("missing required column")

// SchemaEnforce validates that every configured column is present, then
// coerces each one to its declared type (text, number or timestamp).
// The presence check runs first and fails fast naming the first missing
// column, before any value is coerced. Values that fail coercion are
// left as-is.
type SchemaEnforce struct {
	Schema map[string]string
}

func (SchemaEnforce) Name() string { return "schema_enforce" }

func (s SchemaEnforce) Apply(batch *model.TransformedBatch) error {
	columns := make([]string, 0, len(s.Schema))
	for col := range s.Schema {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		if !batch.HasColumn(col) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	for _, col := range columns {
		coerceToType(batch.Records, col, s.Schema[col])
	}
	return nil
}

func coerceToType(records []model.Record, col, declared string) {
	for _, rec := range records {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		switch declared {
		case "timestamp":
			if ts, ok := utils.TryTimestamp(v); ok {
				rec[col] = ts
			}
		case "number":
			if n, ok := utils.TryNumber(v); ok {
				rec[col] = n
			}
		case "text":
			rec[col] = fmt.Sprintf("%v", v)
		}
	}
}
