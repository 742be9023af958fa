package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-datalake-etl/internal/model"
)

func batchOf(rows ...model.Record) *model.TransformedBatch {
	raw := payloadWithRows(rows...)
	return &model.TransformedBatch{
		Records:  raw.Tabular(),
		Metadata: newMetadata(raw),
		Raw:      raw,
	}
}

// ------------------- Business rules -------------------

func TestBusinessRulesCurrencyConversion(t *testing.T) {
	batch := batchOf(model.Record{"price": 100.0})
	stage := BusinessRules{Rules: map[string]model.FieldRule{
		"price": {ConvertCurrency: "EUR"},
	}}

	require.NoError(t, stage.Apply(batch))

	assert.Equal(t, 85.0, batch.Records[0]["price_usd"])
	assert.Equal(t, 100.0, batch.Records[0]["price"])
}

func TestBusinessRulesUnsupportedCurrency(t *testing.T) {
	batch := batchOf(model.Record{"price": 100.0})
	stage := BusinessRules{Rules: map[string]model.FieldRule{
		"price": {ConvertCurrency: "XXX"},
	}}

	err := stage.Apply(batch)

	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	assert.Equal(t, 100.0, batch.Records[0]["price"])
	assert.NotContains(t, batch.Records[0], "price_usd")
}

func TestBusinessRulesSkipsNullAndNonNumeric(t *testing.T) {
	batch := batchOf(
		model.Record{"price": nil},
		model.Record{"price": "n/a"},
		model.Record{"price": 10},
	)
	stage := BusinessRules{Rules: map[string]model.FieldRule{
		"price": {ConvertCurrency: "GBP"},
	}}

	require.NoError(t, stage.Apply(batch))

	assert.NotContains(t, batch.Records[0], "price_usd")
	assert.NotContains(t, batch.Records[1], "price_usd")
	assert.Equal(t, 7.5, batch.Records[2]["price_usd"])
}

// ------------------- Quality metrics -------------------

func TestQualityMetrics(t *testing.T) {
	batch := batchOf(
		model.Record{"id": "1", "city": "Recife"},
		model.Record{"id": "2", "city": nil},
		model.Record{"id": "3", "city": "Recife"},
		model.Record{"id": "4", "city": "Natal"},
	)

	require.NoError(t, Quality{}.Apply(batch))

	metrics := batch.Metadata.QualityMetrics
	require.NotNil(t, metrics)
	assert.InDelta(t, 1.0, metrics.Completeness["id"], 1e-9)
	assert.InDelta(t, 0.75, metrics.Completeness["city"], 1e-9)
	assert.InDelta(t, 1.0, metrics.Uniqueness["id"], 1e-9)
	assert.InDelta(t, 0.5, metrics.Uniqueness["city"], 1e-9)
}

func TestQualityMetricsEmptySourceGetsEmptyMaps(t *testing.T) {
	raw := model.RawPayload{Source: model.SourceDescriptor{Kind: model.SourceDB, Locator: "empty"}}
	batch := &model.TransformedBatch{Records: nil, Metadata: newMetadata(raw), Raw: raw}

	require.NoError(t, Quality{}.Apply(batch))

	require.NotNil(t, batch.Metadata.QualityMetrics)
	assert.Empty(t, batch.Metadata.QualityMetrics.Completeness)
	assert.Empty(t, batch.Metadata.QualityMetrics.Uniqueness)
}

func TestQualityMetricsMalformedEmptyFrame(t *testing.T) {
	// zero records over a non-empty raw payload is an error
	raw := payloadWithRows(model.Record{"id": "1"})
	batch := &model.TransformedBatch{Records: nil, Metadata: newMetadata(raw), Raw: raw}

	assert.ErrorIs(t, Quality{}.Apply(batch), ErrEmptyBatch)
}

// ------------------- Anonymization -------------------

func TestAnonymizeDeterministic(t *testing.T) {
	batch := batchOf(
		model.Record{"ssn": "123-45-6789", "name": "ann"},
		model.Record{"ssn": "123-45-6789", "name": "bob"},
	)

	require.NoError(t, Anonymize{Fields: []string{"ssn"}}.Apply(batch))

	hashed, ok := batch.Records[0]["ssn"].(string)
	require.True(t, ok)
	assert.Len(t, hashed, 64)
	assert.Equal(t, hashed, batch.Records[1]["ssn"])
	assert.Equal(t, "ann", batch.Records[0]["name"])
	assert.Equal(t, []string{"ssn"}, batch.Metadata.AnonymizedFields)
}

func TestAnonymizeNullLeftNull(t *testing.T) {
	batch := batchOf(
		model.Record{"ssn": "123"},
		model.Record{"ssn": nil},
	)

	require.NoError(t, Anonymize{Fields: []string{"ssn"}}.Apply(batch))

	assert.Nil(t, batch.Records[1]["ssn"])
}

func TestAnonymizeAbsentFieldSkipped(t *testing.T) {
	batch := batchOf(model.Record{"name": "ann"})

	require.NoError(t, Anonymize{Fields: []string{"ssn"}}.Apply(batch))

	assert.Empty(t, batch.Metadata.AnonymizedFields)
}

// ------------------- Incremental load -------------------

func TestIncrementalLoadTracking(t *testing.T) {
	batch := batchOf(
		model.Record{"id": "a", "updated": "2024-01-01T00:00:00Z"},
		model.Record{"id": "b", "updated": "2024-06-01T00:00:00Z"},
		model.Record{"id": "a", "updated": "2024-03-01T00:00:00Z"},
	)
	StandardizeTypes(batch.Records)

	stage := IncrementalLoad{IDField: "id", TimestampField: "updated"}
	require.NoError(t, stage.Apply(batch))

	tracking := batch.Metadata.IncrementalTracking
	require.NotNil(t, tracking)
	assert.Equal(t, "2024-06-01T00:00:00Z", tracking.MaxTimestamp)
	assert.Equal(t, []interface{}{"a", "b"}, tracking.RecordIDs)
}

func TestIncrementalLoadMissingField(t *testing.T) {
	batch := batchOf(model.Record{"id": "a"})

	stage := IncrementalLoad{IDField: "id", TimestampField: "updated"}
	assert.ErrorIs(t, stage.Apply(batch), ErrMissingTrackingField)
}

// ------------------- Schema enforcement -------------------

func TestSchemaEnforceMissingColumnFailsFast(t *testing.T) {
	batch := batchOf(model.Record{"id": "1"})
	stage := SchemaEnforce{Schema: map[string]string{
		"id":      "number",
		"created": "timestamp",
	}}

	err := stage.Apply(batch)

	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "created")
	// zero columns coerced before the presence check passed
	assert.Equal(t, "1", batch.Records[0]["id"])
}

func TestSchemaEnforceCoercion(t *testing.T) {
	batch := batchOf(model.Record{
		"id":      "7",
		"created": "2024-01-15T08:00:00Z",
		"note":    42,
	})
	stage := SchemaEnforce{Schema: map[string]string{
		"id":      "number",
		"created": "timestamp",
		"note":    "text",
	}}

	require.NoError(t, stage.Apply(batch))

	assert.Equal(t, 7.0, batch.Records[0]["id"])
	assert.Equal(t, "42", batch.Records[0]["note"])
}

func TestSchemaEnforceKeepsUncoercibleValues(t *testing.T) {
	batch := batchOf(model.Record{"id": "not-a-number"})
	stage := SchemaEnforce{Schema: map[string]string{"id": "number"}}

	require.NoError(t, stage.Apply(batch))

	assert.Equal(t, "not-a-number", batch.Records[0]["id"])
}

// ------------------- Flattening -------------------

func TestFlattenNestedMappings(t *testing.T) {
	batch := batchOf(model.Record{
		"id": "1",
		"address": map[string]interface{}{
			"city": "Recife",
			"geo":  map[string]interface{}{"lat": -8.05},
		},
	})

	require.NoError(t, Flatten{}.Apply(batch))

	rec := batch.Records[0]
	assert.Equal(t, "Recife", rec["address_city"])
	assert.Equal(t, -8.05, rec["address_geo_lat"])
	assert.NotContains(t, rec, "address")
}

func TestFlattenListOfMappings(t *testing.T) {
	batch := batchOf(model.Record{
		"contacts": []interface{}{
			map[string]interface{}{"phone": "123"},
			map[string]interface{}{"phone": "456"},
		},
	})

	require.NoError(t, Flatten{}.Apply(batch))

	rec := batch.Records[0]
	assert.Equal(t, "123", rec["contacts_0_phone"])
	assert.Equal(t, "456", rec["contacts_1_phone"])
}

func TestFlattenDropsScalarListElements(t *testing.T) {
	batch := batchOf(model.Record{"tags": []interface{}{"a", "b"}})

	require.NoError(t, Flatten{}.Apply(batch))

	assert.NotContains(t, batch.Records[0], "tags")
	assert.NotContains(t, batch.Records[0], "tags_0")
}

func TestFlattenIdempotentOnFlatRecord(t *testing.T) {
	flat := model.Record{"a": 1.0, "b": "x"}
	once := flattenRecord(flat, "", "_")
	twice := flattenRecord(once, "", "_")

	assert.Equal(t, once, twice)
}
