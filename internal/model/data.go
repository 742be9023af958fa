package model

// Record is a schema-agnostic field mapping for a single logical row
type Record map[string]interface{}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SourceKind identifies the kind of system a payload came from
type SourceKind string

const (
	SourceAPI    SourceKind = "API"
	SourceDB     SourceKind = "DB"
	SourceSearch SourceKind = "ES"
	SourceFile   SourceKind = "FILE"
	SourceFHIR   SourceKind = "FHIR"
)

// SourceDescriptor tags a payload with its origin (kind + locator)
type SourceDescriptor struct {
	Kind    SourceKind `json:"kind"`
	Locator string     `json:"locator"`
}

func (s SourceDescriptor) String() string {
	return string(s.Kind) + ":" + s.Locator
}

// RawPayload is unprocessed data as returned by a source adapter.
// Exactly one of Rows (tabular) or Single (one nested mapping) is set.
// It is owned by the pipeline invocation that fetched it and is never
// mutated after creation.
type RawPayload struct {
	Source SourceDescriptor `json:"source"`
	Rows   []Record         `json:"rows,omitempty"`
	Single Record           `json:"single,omitempty"`
}

// RecordCount returns the number of logical rows in the payload
func (p RawPayload) RecordCount() int {
	if p.Single != nil {
		return 1
	}
	return len(p.Rows)
}

// IsEmpty reports whether the payload holds no rows at all
func (p RawPayload) IsEmpty() bool {
	return p.Single == nil && len(p.Rows) == 0
}

// Tabular returns the payload as ordered rows. Each row is copied so
// callers can mutate the result without touching the retained raw data.
func (p RawPayload) Tabular() []Record {
	if p.Single != nil {
		return []Record{p.Single.Clone()}
	}
	out := make([]Record, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Clone()
	}
	return out
}

// QualityMetrics holds per-column completeness and uniqueness scores
type QualityMetrics struct {
	Completeness map[string]float64 `json:"completeness"`
	Uniqueness   map[string]float64 `json:"uniqueness"`
}

// IncrementalTracking holds the high watermark for incremental loads
type IncrementalTracking struct {
	MaxTimestamp string        `json:"max_timestamp"`
	RecordIDs    []interface{} `json:"record_ids"`
}

// Metadata is the provenance sidecar generated once per pipeline
// invocation. Stages may fill the optional fields but never overwrite
// the ones set at creation.
type Metadata struct {
	LoadTimestamp       string               `json:"load_timestamp"`
	SourceSystem        string               `json:"source_system"`
	DataHash            string               `json:"data_hash"`
	RecordCount         int                  `json:"record_count"`
	SchemaVersion       string               `json:"schema_version"`
	QualityMetrics      *QualityMetrics      `json:"quality_metrics,omitempty"`
	IncrementalTracking *IncrementalTracking `json:"incremental_tracking,omitempty"`
	AnonymizedFields    []string             `json:"anonymized_fields,omitempty"`
}

// TransformedBatch is the pipeline's unit of output: transformed rows,
// their metadata, and the raw payload retained verbatim for traceability.
type TransformedBatch struct {
	Records  []Record   `json:"data"`
	Metadata *Metadata  `json:"metadata"`
	Raw      RawPayload `json:"-"`
}

// Columns returns the union of field names across all records
func (b *TransformedBatch) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range b.Records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// HasColumn reports whether any record carries the given field
func (b *TransformedBatch) HasColumn(name string) bool {
	for _, rec := range b.Records {
		if _, ok := rec[name]; ok {
			return true
		}
	}
	return false
}

// SavedArtifact points at the two files a save always produces together
type SavedArtifact struct {
	DataPath     string `json:"data_path"`
	MetadataPath string `json:"metadata_path"`
}
