package transform

import (
	"go-datalake-etl/internal/extract"
	"go-datalake-etl/internal/model"
)

// FHIRReshape standardizes FHIR resources in a batch: Patient rows get
// display name/phone/email/address columns, Observation rows get
// coding, value/unit and timestamp columns. Other resource types pass
// through unchanged.
type FHIRReshape struct{}

func (FHIRReshape) Name() string { return "fhir_reshape" }

func (FHIRReshape) Apply(batch *model.TransformedBatch) error {
	for i, rec := range batch.Records {
		batch.Records[i] = extract.ReshapeResource(rec)
	}
	return nil
}
