package extract

import (
	"context"
	"fmt"
	"time"

	"go-datalake-etl/internal/model"
)

// FetchDatabase executes the query and returns one field mapping per
// row, column names taken verbatim from the result set. label names the
// query in the source descriptor. Fails with ErrNotConfigured when the
// extractor holds no database connection.
func (e *Extractor) FetchDatabase(ctx context.Context, label, query string) (model.RawPayload, error) {
	source := model.SourceDescriptor{Kind: model.SourceDB, Locator: label}

	if e.db == nil {
		return model.RawPayload{}, extractionErr(source, ErrNotConfigured)
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("query failed: %w", err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to read columns: %w", err))
	}

	var out []model.Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return model.RawPayload{}, extractionErr(source, fmt.Errorf("scan failed: %w", err))
		}

		rec := make(model.Record, len(columns))
		for i, col := range columns {
			rec[col] = normalizeDBValue(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("row iteration failed: %w", err))
	}

	return model.RawPayload{Source: source, Rows: out}, nil
}

// normalizeDBValue maps driver byte slices to strings so rows look the
// same regardless of driver
func normalizeDBValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val
	default:
		return v
	}
}
