package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-datalake-etl/internal/model"
)

// MedicalExtractor specializes the gateway for FHIR-style bundle APIs.
// It shares the underlying connections of the embedded Extractor.
type MedicalExtractor struct {
	*Extractor
	BaseURL string
}

// NewMedical builds a FHIR-aware extractor on top of the generic one
func NewMedical(cfg Config, baseURL string) (*MedicalExtractor, error) {
	ex, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &MedicalExtractor{Extractor: ex, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// FetchFHIR pages through a FHIR search bundle for the resource type,
// reshaping each entry's resource on the way out. Unknown resource
// types pass through unchanged.
func (m *MedicalExtractor) FetchFHIR(ctx context.Context, resourceType string, params url.Values) (model.RawPayload, error) {
	source := model.SourceDescriptor{Kind: model.SourceFHIR, Locator: resourceType}

	next := m.BaseURL + "/" + resourceType
	if len(params) > 0 {
		next += "?" + params.Encode()
	}

	headers := map[string]string{"Accept": "application/fhir+json"}

	var rows []model.Record
	for next != "" {
		decoded, err := m.getJSON(ctx, next, headers, nil)
		if err != nil {
			return model.RawPayload{}, extractionErr(source, err)
		}

		bundle, ok := decoded.(map[string]interface{})
		if !ok {
			return model.RawPayload{}, extractionErr(source, fmt.Errorf("response is not a FHIR bundle"))
		}

		for _, entry := range asList(bundle["entry"]) {
			em, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if resource, ok := em["resource"].(map[string]interface{}); ok {
				rows = append(rows, ReshapeResource(model.Record(resource)))
			}
		}

		next = bundleNextLink(bundle)
	}

	return model.RawPayload{Source: source, Rows: rows}, nil
}

// bundleNextLink finds the "next" relation in a bundle's link array
func bundleNextLink(bundle map[string]interface{}) string {
	for _, link := range asList(bundle["link"]) {
		lm, ok := link.(map[string]interface{})
		if !ok {
			continue
		}
		if rel, _ := lm["relation"].(string); rel == "next" {
			u, _ := lm["url"].(string)
			return u
		}
	}
	return ""
}

// ReshapeResource standardizes a FHIR resource into flat display
// fields. Patient and Observation get dedicated handling; anything else
// is returned as-is.
func ReshapeResource(resource model.Record) model.Record {
	switch resource["resourceType"] {
	case "Patient":
		return reshapePatient(resource)
	case "Observation":
		return reshapeObservation(resource)
	default:
		return resource
	}
}

// reshapePatient concatenates given-name parts into a display name,
// pulls the first phone/email contact point and folds the first address
// into one string.
func reshapePatient(resource model.Record) model.Record {
	out := resource.Clone()

	if names := asList(out["name"]); names != nil {
		var given []string
		for _, n := range names {
			nm, ok := n.(map[string]interface{})
			if !ok {
				continue
			}
			if g := asList(nm["given"]); len(g) > 0 {
				if s, ok := g[0].(string); ok {
					given = append(given, s)
				}
			}
		}
		out["name"] = strings.Join(given, " ")
	}

	if telecom := asList(out["telecom"]); telecom != nil {
		out["phone"] = firstContactPoint(telecom, "phone")
		out["email"] = firstContactPoint(telecom, "email")
	}

	if addresses := asList(out["address"]); len(addresses) > 0 {
		if am, ok := addresses[0].(map[string]interface{}); ok {
			var parts []string
			if lines := asList(am["line"]); len(lines) > 0 {
				if s, ok := lines[0].(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			for _, key := range []string{"city", "state", "postalCode"} {
				if s, ok := am[key].(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			out["address"] = strings.Join(parts, ", ")
		}
	}

	return out
}

// reshapeObservation extracts coding system/code, value/unit from the
// nested value object and promotes the effective timestamp.
func reshapeObservation(resource model.Record) model.Record {
	out := resource.Clone()

	if code, ok := out["code"].(map[string]interface{}); ok {
		if codings := asList(code["coding"]); len(codings) > 0 {
			if cm, ok := codings[0].(map[string]interface{}); ok {
				out["code_system"] = cm["system"]
				out["code_value"] = cm["code"]
			}
		}
	}

	if vq, ok := out["valueQuantity"].(map[string]interface{}); ok {
		out["value"] = vq["value"]
		out["unit"] = vq["unit"]
	}

	if ts, ok := out["effectiveDateTime"]; ok {
		out["timestamp"] = ts
	}

	return out
}

func firstContactPoint(telecom []interface{}, system string) interface{} {
	for _, t := range telecom {
		tm, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		if s, _ := tm["system"].(string); s == system {
			return tm["value"]
		}
	}
	return nil
}

func asList(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}
