package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go-datalake-etl/internal/model"
)

// FetchSearchIndex runs the query body against the index and returns
// the _source document of each hit, truncated to maxResults. Fails with
// ErrNotConfigured when the extractor was built without a search client.
func (e *Extractor) FetchSearchIndex(ctx context.Context, index string, queryBody map[string]interface{}, maxResults int) (model.RawPayload, error) {
	source := model.SourceDescriptor{Kind: model.SourceSearch, Locator: index}

	if e.es == nil {
		return model.RawPayload{}, extractionErr(source, ErrNotConfigured)
	}
	if maxResults <= 0 {
		maxResults = 100
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("invalid query body: %w", err))
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithBody(bytes.NewReader(body)),
		e.es.Search.WithSize(maxResults),
	)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("search failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source model.Record `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("failed to decode search response: %w", err))
	}

	hits := parsed.Hits.Hits
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	rows := make([]model.Record, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, hit.Source)
	}

	return model.RawPayload{Source: source, Rows: rows}, nil
}
