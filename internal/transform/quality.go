package transform

import (
	"errors"
	"fmt"

	"go-datalake-etl/internal/model"
)

// ErrEmptyBatch is returned when quality metrics are requested for a
// zero-row batch whose source was not itself empty
var ErrEmptyBatch = errors.New("cannot calculate metrics for empty batch")

// Quality computes per-column completeness and uniqueness and records
// them in the batch metadata
type Quality struct{}

func (Quality) Name() string { return "quality_metrics" }

func (Quality) Apply(batch *model.TransformedBatch) error {
	if len(batch.Records) == 0 {
		// a source that was empty by design gets empty metric maps; a
		// malformed empty frame over non-empty raw data is an error
		if batch.Raw.IsEmpty() {
			batch.Metadata.QualityMetrics = &model.QualityMetrics{
				Completeness: map[string]float64{},
				Uniqueness:   map[string]float64{},
			}
			return nil
		}
		return ErrEmptyBatch
	}

	rowCount := len(batch.Records)
	completeness := make(map[string]float64)
	uniqueness := make(map[string]float64)

	for _, col := range batch.Columns() {
		nulls := 0
		distinct := make(map[string]bool)
		for _, rec := range batch.Records {
			v, ok := rec[col]
			if !ok || v == nil {
				nulls++
				continue
			}
			distinct[fmt.Sprintf("%v", v)] = true
		}
		completeness[col] = 1 - float64(nulls)/float64(rowCount)
		uniqueness[col] = float64(len(distinct)) / float64(max(1, rowCount))
	}

	batch.Metadata.QualityMetrics = &model.QualityMetrics{
		Completeness: completeness,
		Uniqueness:   uniqueness,
	}
	return nil
}
