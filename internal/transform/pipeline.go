package transform

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"go-datalake-etl/internal/extract"
	"go-datalake-etl/internal/model"
)

// Stage is one transformation step. Stages consume and produce the same
// batch shape: they may add or mutate columns and append metadata keys,
// but never drop records or earlier metadata.
type Stage interface {
	Name() string
	Apply(batch *model.TransformedBatch) error
}

// Transformer turns gateway payloads into data-lake ready batches. Each
// invocation is a linear pipeline: extract, standardize column types,
// then the configured stages in order. Any stage error aborts the whole
// invocation; no partial batch is ever returned.
type Transformer struct {
	extractor *extract.Extractor
	stages    []Stage
}

// New assembles a transformer with the stages to run, in order
func New(extractor *extract.Extractor, stages ...Stage) *Transformer {
	return &Transformer{extractor: extractor, stages: stages}
}

// TransformAPIData extracts from a REST endpoint and runs the pipeline
func (t *Transformer) TransformAPIData(ctx context.Context, baseURL, endpoint string, query url.Values, headers map[string]string, auth *extract.BasicAuth) (*model.TransformedBatch, error) {
	raw, err := t.extractor.FetchAPI(ctx, baseURL, endpoint, query, headers, auth)
	if err != nil {
		return nil, err
	}
	return t.run(raw)
}

// TransformDatabaseData extracts query results and runs the pipeline
func (t *Transformer) TransformDatabaseData(ctx context.Context, label, query string) (*model.TransformedBatch, error) {
	raw, err := t.extractor.FetchDatabase(ctx, label, query)
	if err != nil {
		return nil, err
	}
	return t.run(raw)
}

// TransformFileData extracts a local file and runs the pipeline
func (t *Transformer) TransformFileData(ctx context.Context, path, kind string) (*model.TransformedBatch, error) {
	raw, err := t.extractor.FetchFile(ctx, path, kind)
	if err != nil {
		return nil, err
	}
	return t.run(raw)
}

// TransformSearchData extracts search-index hits and runs the pipeline
func (t *Transformer) TransformSearchData(ctx context.Context, index string, queryBody map[string]interface{}, maxResults int) (*model.TransformedBatch, error) {
	raw, err := t.extractor.FetchSearchIndex(ctx, index, queryBody, maxResults)
	if err != nil {
		return nil, err
	}
	return t.run(raw)
}

// TransformPayload runs the pipeline over an already-fetched payload.
// The FHIR-specialized extractor feeds this entry point.
func (t *Transformer) TransformPayload(raw model.RawPayload) (*model.TransformedBatch, error) {
	return t.run(raw)
}

func (t *Transformer) run(raw model.RawPayload) (*model.TransformedBatch, error) {
	records := raw.Tabular()
	StandardizeTypes(records)

	batch := &model.TransformedBatch{
		Records:  records,
		Metadata: newMetadata(raw),
		Raw:      raw,
	}

	for _, stage := range t.stages {
		if err := stage.Apply(batch); err != nil {
			log.Printf("stage %s failed for %s: %v", stage.Name(), raw.Source, err)
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}

	return batch, nil
}

// BuildStages assembles the stage list from a job's stage spec, in the
// fixed order the pipeline applies them
func BuildStages(spec model.StageSpec) []Stage {
	var stages []Stage
	if spec.FHIRReshape {
		stages = append(stages, FHIRReshape{})
	}
	if len(spec.BusinessRules) > 0 {
		stages = append(stages, BusinessRules{Rules: spec.BusinessRules})
	}
	if spec.Quality {
		stages = append(stages, Quality{})
	}
	if len(spec.Anonymize) > 0 {
		stages = append(stages, Anonymize{Fields: spec.Anonymize})
	}
	if spec.Incremental != nil {
		stages = append(stages, IncrementalLoad{
			IDField:        spec.Incremental.IDField,
			TimestampField: spec.Incremental.TimestampField,
		})
	}
	if len(spec.Schema) > 0 {
		stages = append(stages, SchemaEnforce{Schema: spec.Schema})
	}
	if spec.Flatten {
		stages = append(stages, Flatten{})
	}
	return stages
}
