package sanitizer

import "math"

const (
	MinPricePerHour = 0.0

	MaxPricePerHour = 100000.0
)

// NormalizePrice clamps an hourly price into the allowed range and rounds it
// to two decimal places.
func NormalizePrice(price float64) float64 {
	if price < MinPricePerHour {
		price = MinPricePerHour
	}
	if price > MaxPricePerHour {
		price = MaxPricePerHour
	}
	return math.Round(price*100) / 100
}
