package transform

import (
	"fmt"

	"go-datalake-etl/internal/model"
)

// Flatten recursively collapses nested mappings into single-level keys
// joined by Separator. List elements that are themselves mappings get
// an index suffix; scalar list elements are dropped — documented
// information loss, not an error. Idempotent on already-flat records.
type Flatten struct {
	Separator string
}

func (Flatten) Name() string { return "flatten" }

func (s Flatten) Apply(batch *model.TransformedBatch) error {
	sep := s.Separator
	if sep == "" {
		sep = "_"
	}
	for i, rec := range batch.Records {
		batch.Records[i] = flattenRecord(rec, "", sep)
	}
	return nil
}

func flattenRecord(rec model.Record, prefix, sep string) model.Record {
	out := make(model.Record)
	for k, v := range rec {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}

		switch val := v.(type) {
		case model.Record:
			for fk, fv := range flattenRecord(val, key, sep) {
				out[fk] = fv
			}
		case map[string]interface{}:
			for fk, fv := range flattenRecord(model.Record(val), key, sep) {
				out[fk] = fv
			}
		case []interface{}:
			for i, item := range val {
				if m, ok := item.(map[string]interface{}); ok {
					indexed := fmt.Sprintf("%s%s%d", key, sep, i)
					for fk, fv := range flattenRecord(model.Record(m), indexed, sep) {
						out[fk] = fv
					}
				}
			}
		default:
			out[key] = v
		}
	}
	return out
}
