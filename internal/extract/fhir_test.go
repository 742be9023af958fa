package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-datalake-etl/internal/model"
)

func TestFetchFHIRPagesThroughBundles(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/fhir+json", r.Header.Get("Accept"))

		bundle := map[string]interface{}{
			"resourceType": "Bundle",
			"entry": []interface{}{
				map[string]interface{}{"resource": map[string]interface{}{
					"resourceType": "Patient",
					"id":           r.URL.Query().Get("page"),
				}},
			},
		}
		if r.URL.Query().Get("page") == "" {
			bundle["link"] = []interface{}{
				map[string]interface{}{"relation": "self", "url": server.URL + "/Patient"},
				map[string]interface{}{"relation": "next", "url": server.URL + "/Patient?page=2"},
			}
		}
		json.NewEncoder(w).Encode(bundle)
	}))
	defer server.Close()

	medical, err := NewMedical(Config{}, server.URL)
	require.NoError(t, err)
	defer medical.Close()

	payload, err := medical.FetchFHIR(context.Background(), "Patient", nil)
	require.NoError(t, err)

	assert.Equal(t, model.SourceFHIR, payload.Source.Kind)
	assert.Equal(t, "Patient", payload.Source.Locator)
	require.Len(t, payload.Rows, 2)
	assert.Equal(t, "2", payload.Rows[1]["id"])
}

func TestFetchFHIRNonBundleResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[1, 2, 3]`)
	}))
	defer server.Close()

	medical, err := NewMedical(Config{}, server.URL)
	require.NoError(t, err)
	defer medical.Close()

	_, err = medical.FetchFHIR(context.Background(), "Patient", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle")
}

func TestReshapePatient(t *testing.T) {
	resource := model.Record{
		"resourceType": "Patient",
		"id":           "p-1",
		"name": []interface{}{
			map[string]interface{}{"given": []interface{}{"Maria", "Clara"}, "family": "Silva"},
			map[string]interface{}{"given": []interface{}{"Mari"}},
		},
		"telecom": []interface{}{
			map[string]interface{}{"system": "phone", "value": "555-0101"},
			map[string]interface{}{"system": "email", "value": "maria@example.com"},
			map[string]interface{}{"system": "phone", "value": "555-0202"},
		},
		"address": []interface{}{
			map[string]interface{}{
				"line":       []interface{}{"Rua A, 10"},
				"city":       "Recife",
				"state":      "PE",
				"postalCode": "50000-000",
			},
		},
	}

	out := ReshapeResource(resource)

	assert.Equal(t, "Maria Mari", out["name"])
	assert.Equal(t, "555-0101", out["phone"])
	assert.Equal(t, "maria@example.com", out["email"])
	assert.Equal(t, "Rua A, 10, Recife, PE, 50000-000", out["address"])
	// original resource untouched
	assert.IsType(t, []interface{}{}, resource["name"])
}

func TestReshapeObservation(t *testing.T) {
	resource := model.Record{
		"resourceType": "Observation",
		"code": map[string]interface{}{
			"coding": []interface{}{
				map[string]interface{}{"system": "http://loinc.org", "code": "8867-4"},
			},
		},
		"valueQuantity":     map[string]interface{}{"value": 72.0, "unit": "beats/minute"},
		"effectiveDateTime": "2024-02-01T09:30:00Z",
	}

	out := ReshapeResource(resource)

	assert.Equal(t, "http://loinc.org", out["code_system"])
	assert.Equal(t, "8867-4", out["code_value"])
	assert.Equal(t, 72.0, out["value"])
	assert.Equal(t, "beats/minute", out["unit"])
	assert.Equal(t, "2024-02-01T09:30:00Z", out["timestamp"])
}

func TestReshapeUnknownResourcePassesThrough(t *testing.T) {
	resource := model.Record{"resourceType": "Device", "id": "d-1"}

	out := ReshapeResource(resource)

	assert.Equal(t, resource, out)
}
