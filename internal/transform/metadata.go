package transform

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"go-datalake-etl/internal/model"
)

const schemaVersion = "1.0"

// ContentHash fingerprints a raw payload for provenance and dedup, not
// for security. The payload is serialized with keys in canonical sorted
// order, so the same payload always yields the same hash.
func ContentHash(p model.RawPayload) string {
	var content interface{}
	if p.Single != nil {
		content = p.Single
	} else {
		content = p.Rows
	}

	// encoding/json writes map keys in sorted order, which is exactly
	// the canonical form we need
	serialized, err := json.Marshal(content)
	if err != nil {
		serialized = []byte(p.Source.String())
	}

	sum := md5.Sum(serialized)
	return hex.EncodeToString(sum[:])
}

// newMetadata generates the provenance block once per invocation
func newMetadata(raw model.RawPayload) *model.Metadata {
	return &model.Metadata{
		LoadTimestamp: time.Now().UTC().Format(time.RFC3339),
		SourceSystem:  raw.Source.String(),
		DataHash:      ContentHash(raw),
		RecordCount:   raw.RecordCount(),
		SchemaVersion: schemaVersion,
	}
}
