package currency

import (
	"math"
	"strings"
)

// Lookup returns the currency for an ISO 4217 code, nil when unknown.
func Lookup(code string) *Currency {
	c, ok := Currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil
	}
	return &c
}

// Normalize returns the canonical uppercase code, or the default when the
// code is unknown or empty.
func Normalize(code string) string {
	if c := Lookup(code); c != nil {
		return c.Code
	}
	return DefaultCode
}

// ToMinorUnits converts a major-unit amount to the currency's smallest unit,
// which is what the payment gateway charges in (e.g. 120.50 INR -> 12050 paise).
func ToMinorUnits(amount float64, code string) int64 {
	factor := math.Pow10(minorUnits(code))
	return int64(math.Round(amount * factor))
}

// FromMinorUnits converts a gateway amount back to major units.
func FromMinorUnits(minor int64, code string) float64 {
	factor := math.Pow10(minorUnits(code))
	return float64(minor) / factor
}

func minorUnits(code string) int {
	if c := Lookup(code); c != nil {
		return c.MinorUnits
	}
	return 2
}
