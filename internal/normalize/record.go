package normalize

import (
	"strings"
	"time"
	"unicode"

	"go-datalake-etl/internal/model"
)

// requiredFields must all be present and non-empty for a record to
// normalize successfully
var requiredFields = []string{"id", "firstName", "lastName", "cpf"}

// knownFields are lifted into the normalized record; everything else is
// preserved under originalData
var knownFields = map[string]bool{
	"id": true, "cpf": true, "firstName": true, "lastName": true,
	"email": true, "telephone": true, "city": true, "state": true,
	"country": true, "createdAt": true, "updatedAt": true,
}

// normalizeRecord cleans a single raw record. Missing required fields
// produce a failure marker carrying the original input instead of an
// error, so one bad record never discards its batch.
func normalizeRecord(raw model.Record) model.NormalizedRecord {
	rec := model.Record{
		"id":        cleanValue(raw["id"]),
		"cpf":       cleanValue(raw["cpf"]),
		"firstName": cleanValue(raw["firstName"]),
		"lastName":  cleanValue(raw["lastName"]),
		"fullName": strings.TrimSpace(
			cleanString(raw["firstName"]) + " " + cleanString(raw["lastName"]),
		),
		"email":       normalizeEmail(raw["email"]),
		"telephone":   formatPhone(raw["telephone"]),
		"city":        cleanValue(raw["city"]),
		"state":       normalizeState(raw["state"]),
		"country":     normalizeCountry(raw["country"]),
		"createdAt":   parseDate(raw["createdAt"]),
		"updatedAt":   parseDate(raw["updatedAt"]),
		"processedAt": time.Now().UTC().Format(time.RFC3339),
	}

	extras := make(model.Record)
	for k, v := range raw {
		if !knownFields[k] {
			extras[k] = v
		}
	}
	if len(extras) > 0 {
		rec["originalData"] = extras
	}

	var missing []string
	for _, field := range requiredFields {
		if isEmptyValue(rec[field]) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return model.NormalizedRecord{
			ID:           raw["id"],
			Error:        "missing required fields: " + strings.Join(missing, ", "),
			OriginalData: raw,
		}
	}

	return model.NormalizedRecord{Record: rec}
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// cleanValue trims string values and passes everything else through
func cleanValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

func cleanString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func normalizeEmail(v interface{}) interface{} {
	s := cleanString(v)
	if s == "" {
		return nil
	}
	return strings.ToLower(s)
}

// formatPhone reformats by digit count: 11 digits is the Brazilian
// mobile layout, 10 the landline one, anything else stays bare digits
func formatPhone(v interface{}) interface{} {
	s := cleanString(v)
	if s == "" {
		return nil
	}

	var digits []rune
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	d := string(digits)

	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return d
	}
}

func normalizeState(v interface{}) interface{} {
	s := strings.TrimSpace(strings.ToUpper(cleanString(v)))
	if s == "" {
		return nil
	}
	// truncate by runes, not bytes, so accented names stay valid UTF-8
	if runes := []rune(s); len(runes) > 2 {
		s = string(runes[:2])
	}
	return s
}

// normalizeCountry canonicalizes with a small synonym table and
// defaults to Brasil when absent
func normalizeCountry(v interface{}) interface{} {
	s := strings.ToLower(cleanString(v))
	if s == "" {
		return "Brasil"
	}
	switch s {
	case "br", "brasil", "brazil":
		return "Brasil"
	default:
		return strings.Title(s)
	}
}

// parseDate re-serializes timestamps to RFC 3339; unparseable values
// are returned untouched
func parseDate(v interface{}) interface{} {
	s := cleanString(v)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format(time.RFC3339)
		}
	}
	return s
}
