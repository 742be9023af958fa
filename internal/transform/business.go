package transform

import (
	"errors"
	"fmt"
	"sort"

	"go-datalake-etl/internal/model"
	"go-datalake-etl/pkg/utils"
)

// ErrUnsupportedCurrency is returned for currency codes missing from
// the rate table
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// exchangeRates is a fixed lookup keyed by target currency code.
// A live deployment would refresh these from a rates feed.
var exchangeRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.85,
	"GBP": 0.75,
	"JPY": 110.0,
}

// BusinessRules applies a configuration-driven rule set to the batch.
// Currently: currency conversion, writing <field>_usd next to the
// untouched source column.
type BusinessRules struct {
	Rules map[string]model.FieldRule
}

func (BusinessRules) Name() string { return "business_rules" }

func (s BusinessRules) Apply(batch *model.TransformedBatch) error {
	// validate every rule before converting anything, so an unknown
	// currency leaves the batch completely untouched
	fields := make([]string, 0, len(s.Rules))
	for field := range s.Rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		code := s.Rules[field].ConvertCurrency
		if code == "" {
			continue
		}
		if _, ok := exchangeRates[code]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
		}
	}

	for _, field := range fields {
		code := s.Rules[field].ConvertCurrency
		if code == "" {
			continue
		}
		rate := exchangeRates[code]
		for _, rec := range batch.Records {
			v, ok := rec[field]
			if !ok || v == nil {
				continue
			}
			if n, ok := utils.AsNumber(v); ok {
				rec[field+"_usd"] = n * rate
			}
		}
	}

	return nil
}
