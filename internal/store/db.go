package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-datalake-etl/internal/model"
)

var db *sql.DB

// Init opens the provenance registry and creates its schema
func Init(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	artifactTable := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		source TEXT,
		content_hash TEXT,
		data_path TEXT,
		metadata_path TEXT,
		record_count INTEGER,
		created_at DATETIME
	);
	`
	if _, err := db.Exec(artifactTable); err != nil {
		return err
	}
	return nil
}

// RecordArtifact registers a saved artifact for dedup and audit
func RecordArtifact(id, source, contentHash string, artifact model.SavedArtifact, recordCount int) error {
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO artifacts (id, source, content_hash, data_path, metadata_path, record_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, source, contentHash, artifact.DataPath, artifact.MetadataPath, recordCount, now)
	return err
}

// FindByHash looks up a previously saved artifact with the same content
// hash; used to skip re-saving identical payloads
func FindByHash(contentHash string) (string, bool, error) {
	var dataPath string
	err := db.QueryRow(`SELECT data_path FROM artifacts WHERE content_hash = ? LIMIT 1`, contentHash).Scan(&dataPath)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return dataPath, true, nil
}

// ListArtifacts returns all registered artifacts, newest first
func ListArtifacts() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, source, content_hash, data_path, record_count, created_at FROM artifacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []map[string]interface{}
	for rows.Next() {
		var id, source, hash, dataPath string
		var recordCount int
		var createdAt time.Time
		if err := rows.Scan(&id, &source, &hash, &dataPath, &recordCount, &createdAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, map[string]interface{}{
			"id":          id,
			"source":      source,
			"contentHash": hash,
			"dataPath":    dataPath,
			"recordCount": recordCount,
			"createdAt":   createdAt,
		})
	}
	return artifacts, rows.Err()
}

// Close releases the registry connection
func Close() error {
	if db == nil {
		return nil
	}
	return db.Close()
}
