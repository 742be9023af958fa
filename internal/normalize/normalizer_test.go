package normalize

import (
	"context"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-datalake-etl/internal/model"
)

func validRecord(id string) model.Record {
	return model.Record{
		"id":        id,
		"firstName": "Ana",
		"lastName":  "Souza",
		"cpf":       "123.456.789-00",
	}
}

func TestNormalizeMixedBatch(t *testing.T) {
	records := []model.Record{
		validRecord("c-1"),
		{"id": "c-2", "firstName": "Bruno"}, // lastName and cpf missing
	}

	out, err := New(4).Normalize(context.Background(), records, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.False(t, out[0].Failed())
	assert.Equal(t, "Ana Souza", out[0].Record["fullName"])

	require.True(t, out[1].Failed())
	assert.Equal(t, "c-2", out[1].ID)
	assert.Equal(t, "missing required fields: lastName, cpf", out[1].Error)
	assert.Equal(t, records[1], out[1].OriginalData)
}

func TestNormalizePreservesInputOrder(t *testing.T) {
	const total = 250
	records := make([]model.Record, total)
	for i := range records {
		records[i] = validRecord(fmt.Sprintf("c-%03d", i))
	}

	// small chunks across many workers still land in input order
	out, err := New(8).Normalize(context.Background(), records, 7)
	require.NoError(t, err)
	require.Len(t, out, total)

	for i, res := range out {
		require.False(t, res.Failed(), "record %d", i)
		assert.Equal(t, fmt.Sprintf("c-%03d", i), res.Record["id"])
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	out, err := New(4).Normalize(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make([]model.Record, 500)
	for i := range records {
		records[i] = validRecord(fmt.Sprintf("c-%d", i))
	}

	_, err := New(2).Normalize(ctx, records, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeRecordFields(t *testing.T) {
	raw := model.Record{
		"id":        " c-9 ",
		"firstName": "  Carla ",
		"lastName":  "Lima",
		"cpf":       "987.654.321-00",
		"email":     " Carla.Lima@Example.COM ",
		"telephone": "81 98765-4321",
		"city":      "Recife",
		"state":     "pernambuco",
		"country":   "brazil",
		"createdAt": "2024-01-15",
		"score":     88.5,
	}

	out := normalizeRecord(raw)
	require.False(t, out.Failed())

	rec := out.Record
	assert.Equal(t, "c-9", rec["id"])
	assert.Equal(t, "Carla Lima", rec["fullName"])
	assert.Equal(t, "carla.lima@example.com", rec["email"])
	assert.Equal(t, "(81) 98765-4321", rec["telephone"])
	assert.Equal(t, "PE", rec["state"])
	assert.Equal(t, "Brasil", rec["country"])
	assert.Equal(t, "2024-01-15T00:00:00Z", rec["createdAt"])
	assert.NotEmpty(t, rec["processedAt"])

	extras, ok := rec["originalData"].(model.Record)
	require.True(t, ok)
	assert.Equal(t, 88.5, extras["score"])
	assert.NotContains(t, extras, "email")
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]interface{}{
		"81987654321":     "(81) 98765-4321",
		"(81) 98765-4321": "(81) 98765-4321",
		"8133334444":      "(81) 3333-4444",
		"12345":           "12345",
		"":                nil,
	}
	for input, want := range cases {
		assert.Equal(t, want, formatPhone(input), "input %q", input)
	}
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "PE", normalizeState("pernambuco"))
	assert.Equal(t, "SP", normalizeState("SP"))
	assert.Nil(t, normalizeState("  "))

	// accented names must truncate on rune boundaries
	got, ok := normalizeState("são paulo").(string)
	require.True(t, ok)
	assert.Equal(t, "SÃ", got)
	assert.True(t, utf8.ValidString(got))
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "Brasil", normalizeCountry("br"))
	assert.Equal(t, "Brasil", normalizeCountry("Brazil"))
	assert.Equal(t, "Brasil", normalizeCountry(nil))
	assert.Equal(t, "Argentina", normalizeCountry("argentina"))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "2024-01-15T08:30:00Z", parseDate("2024-01-15T08:30:00Z"))
	assert.Equal(t, "2024-01-15T00:00:00Z", parseDate("2024-01-15"))
	assert.Equal(t, "not a date", parseDate("not a date"))
	assert.Nil(t, parseDate(""))
}
