package model

// SourceSpec describes one source to extract in a job file
type SourceSpec struct {
	Type string `yaml:"type"` // api, database, file, search, fhir

	// api / fhir
	BaseURL  string            `yaml:"baseUrl,omitempty"`
	Endpoint string            `yaml:"endpoint,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Resource string            `yaml:"resource,omitempty"`

	// database
	Label string `yaml:"label,omitempty"`
	Query string `yaml:"query,omitempty"`

	// file
	Path string `yaml:"path,omitempty"`
	Kind string `yaml:"kind,omitempty"` // json, csv

	// search
	Index      string                 `yaml:"index,omitempty"`
	Body       map[string]interface{} `yaml:"body,omitempty"`
	MaxResults int                    `yaml:"maxResults,omitempty"`
}

// FieldRule configures business rules for a single column
type FieldRule struct {
	ConvertCurrency string `yaml:"convertCurrency,omitempty"`
}

// IncrementalSpec configures incremental load tracking
type IncrementalSpec struct {
	IDField        string `yaml:"idField"`
	TimestampField string `yaml:"timestampField"`
}

// StageSpec selects and configures the transformation stages to run,
// in the fixed order the pipeline assembles them
type StageSpec struct {
	FHIRReshape   bool                 `yaml:"fhirReshape,omitempty"`
	BusinessRules map[string]FieldRule `yaml:"businessRules,omitempty"`
	Quality       bool                 `yaml:"quality,omitempty"`
	Anonymize     []string             `yaml:"anonymize,omitempty"`
	Incremental   *IncrementalSpec     `yaml:"incremental,omitempty"`
	Schema        map[string]string    `yaml:"schema,omitempty"` // column -> text|number|timestamp
	Flatten       bool                 `yaml:"flatten,omitempty"`
}

// SinkSpec configures where and how a job persists its batches
type SinkSpec struct {
	Format           string   `yaml:"format,omitempty"` // parquet, jsonl, csv
	PartitionColumns []string `yaml:"partitionColumns,omitempty"`
}

// JobSpec is the full configuration for one ETL run, loaded from a
// YAML job file by the CLI
type JobSpec struct {
	Sources []SourceSpec `yaml:"sources"`
	Stages  StageSpec    `yaml:"stages"`
	Sink    SinkSpec     `yaml:"sink"`
}
