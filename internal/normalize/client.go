package normalize

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go-datalake-etl/internal/model"
)

// Client fetches raw record lists from the external records API,
// signing each request with a shared secret
type Client struct {
	BaseURL string
	Secret  string

	httpClient *http.Client
}

// NewClient builds a records API client with a bounded timeout
func NewClient(baseURL, secret string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchRecords GETs the record list to feed the normalizer
func (c *Client) FetchRecords(ctx context.Context, path string) ([]model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "datalake-etl/1.0")
	if c.Secret != "" {
		c.signRequest(req, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("records request returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read records body: %w", err)
	}

	var records []model.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// signRequest adds the timestamped HMAC headers the records API expects
func (c *Client) signRequest(req *http.Request, body string) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.Secret))
	mac.Write([]byte(timestamp + body))

	req.Header.Set("X-API-Signature", hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("X-API-Timestamp", timestamp)
}
