package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go-datalake-etl/internal/model"
)

// BasicAuth carries optional credentials for API requests
type BasicAuth struct {
	Username string
	Password string
}

// FetchAPI issues a bounded-timeout GET against endpoint resolved on
// baseURL and returns the decoded body as a RawPayload. Non-2xx
// responses and timeouts fail with an ExtractionError.
func (e *Extractor) FetchAPI(ctx context.Context, baseURL, endpoint string, query url.Values, headers map[string]string, auth *BasicAuth) (model.RawPayload, error) {
	source := model.SourceDescriptor{Kind: model.SourceAPI, Locator: baseURL + endpoint}

	resolved, err := resolveURL(baseURL, endpoint)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, err)
	}
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}

	body, err := e.getJSON(ctx, resolved.String(), headers, auth)
	if err != nil {
		return model.RawPayload{}, extractionErr(source, err)
	}

	return wrapDecoded(source, body)
}

func resolveURL(baseURL, endpoint string) (*url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	return base.ResolveReference(ref), nil
}

// getJSON performs the GET and decodes the response body. The request
// carries the context so callers can abort long extractions.
func (e *Extractor) getJSON(ctx context.Context, rawURL string, headers map[string]string, auth *BasicAuth) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "datalake-etl/1.0")
	if e.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.authToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if auth != nil {
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return decoded, nil
}

// wrapDecoded turns a decoded JSON document into a RawPayload: arrays
// become tabular rows, a single object becomes a single mapping.
func wrapDecoded(source model.SourceDescriptor, decoded interface{}) (model.RawPayload, error) {
	switch data := decoded.(type) {
	case []interface{}:
		rows := make([]model.Record, 0, len(data))
		for _, item := range data {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, model.Record(m))
			}
		}
		return model.RawPayload{Source: source, Rows: rows}, nil
	case map[string]interface{}:
		return model.RawPayload{Source: source, Single: model.Record(data)}, nil
	default:
		return model.RawPayload{}, extractionErr(source, fmt.Errorf("unexpected JSON structure"))
	}
}
