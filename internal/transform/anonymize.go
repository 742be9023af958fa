package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go-datalake-etl/internal/model"
)

// Anonymize replaces every non-null value of the configured sensitive
// fields with a deterministic one-way hash of its string form. Fields
// absent from the batch are silently skipped; the fields actually
// anonymized are recorded in metadata.
type Anonymize struct {
	Fields []string
}

func (Anonymize) Name() string { return "anonymize" }

func (s Anonymize) Apply(batch *model.TransformedBatch) error {
	var applied []string

	for _, field := range s.Fields {
		if !batch.HasColumn(field) {
			continue
		}
		for _, rec := range batch.Records {
			v, ok := rec[field]
			if !ok || v == nil {
				continue
			}
			rec[field] = hashValue(v)
		}
		applied = append(applied, field)
	}

	batch.Metadata.AnonymizedFields = append(batch.Metadata.AnonymizedFields, applied...)
	return nil
}

func hashValue(v interface{}) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%v", v)))
	return hex.EncodeToString(sum[:])
}
