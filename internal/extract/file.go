package extract

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

// FetchFile reads a local file of the given kind (json or csv) into a
// RawPayload. Unknown kinds fail with ErrUnsupportedFormat.
func (e *Extractor) FetchFile(ctx context.Context, path, kind string) (model.RawPayload, error) {
	source := model.SourceDescriptor{Kind: model.SourceFile, Locator: path}

	switch strings.ToLower(kind) {
	case "json":
		return e.fetchJSONFile(source, path)
	case "csv":
		return e.fetchCSVFile(ctx, source, path)
	default:
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind))
	}
}

func (e *Extractor) fetchJSONFile(source model.SourceDescriptor, path string) (model.RawPayload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to open JSON file: %w", err))
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to decode JSON: %w", err))
	}

	return wrapDecoded(source, decoded)
}

func (e *Extractor) fetchCSVFile(ctx context.Context, source model.SourceDescriptor, path string) (model.RawPayload, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to open CSV file: %w", err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to read CSV header: %w", err))
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and strip quotes
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	var rows []model.Record
	for {
		select {
		case <-ctx.Done():
			return model.RawPayload{}, extractionErr(source, ctx.Err())
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.RawPayload{}, extractionErr(source, fmt.Errorf("CSV read error: %w", err))
		}

		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if i < len(record) {
				rec[h] = utils.ParseValue(record[i])
			}
		}
		rows = append(rows, rec)
	}

	return model.RawPayload{Source: source, Rows: rows}, nil
}
