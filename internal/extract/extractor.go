package extract

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultTimeout = 10 * time.Second

// Config carries the explicit settings for one extractor instance.
// Everything is passed in; the extractor reads no ambient state.
type Config struct {
	Timeout time.Duration

	// Database is an already-open connection; the extractor takes
	// ownership and closes it on Close
	Database *sql.DB

	// Elasticsearch settings; a client is built and health-checked at
	// construction time when Addresses is non-empty
	ESAddresses []string
	ESUsername  string
	ESPassword  string

	// AuthToken is sent as a bearer token on API and FHIR requests
	AuthToken string
}

// Extractor provides uniform read access to API, database, search-index
// and file sources. It is safe for use from a single invocation at a
// time; concurrency across invocations is the caller's responsibility.
type Extractor struct {
	client    *http.Client
	db        *sql.DB
	es        *elasticsearch.Client
	authToken string
}

// New builds an extractor from config. When Elasticsearch addresses are
// given the client is pinged immediately so a bad cluster fails at
// construction, not on first fetch.
func New(cfg Config) (*Extractor, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ex := &Extractor{
		client:    &http.Client{Timeout: timeout},
		db:        cfg.Database,
		authToken: cfg.AuthToken,
	}

	if len(cfg.ESAddresses) > 0 {
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.ESAddresses,
			Username:  cfg.ESUsername,
			Password:  cfg.ESPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build search client: %w", err)
		}
		res, err := es.Ping()
		if err != nil {
			return nil, fmt.Errorf("search cluster health check failed: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return nil, fmt.Errorf("search cluster health check failed: %s", res.Status())
		}
		ex.es = es
		log.Println("search index connection established")
	}

	return ex, nil
}

// Close releases every held connection. It is safe under defer and on
// every exit path; database and search fetches after Close fail with
// ErrNotConfigured.
func (e *Extractor) Close() error {
	e.client.CloseIdleConnections()
	e.es = nil

	if e.db != nil {
		db := e.db
		e.db = nil
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}
