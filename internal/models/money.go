package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a string into a decimal amount. It is total: currency
// symbols and thousand separators are stripped, and anything that still does
// not parse yields zero. The inputs come from OCR output, so a silent zero is
// preferable to aborting review of an otherwise valid batch.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

// ParseAmountJSON coerces a raw JSON value (number, quoted string, null, or
// absent) into a decimal amount, defaulting to zero. Like ParseAmount it never
// fails.
func ParseAmountJSON(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}

	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err == nil {
		return d
	}

	return decimal.Zero
}

// ParseOptionalAmountJSON is ParseAmountJSON for nullable amounts: null or
// absent input yields nil instead of zero, so "no amount recorded" stays
// distinguishable from "zero recorded".
func ParseOptionalAmountJSON(raw json.RawMessage) *decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	d := ParseAmountJSON(raw)
	return &d
}

// AmountsWithinTolerance compares two decimal amounts with a tolerance
func AmountsWithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// SumAmounts adds a list of decimal amounts
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
