package currency

const DefaultCode = "INR"

type Currency struct {
	Code       string // ISO 4217 alphabetic code (e.g., "INR", "USD")
	Name       string // Human-readable currency name
	Symbol     string
	MinorUnits int // Digits after the decimal separator
}

var Currencies = map[string]Currency{
	"INR": {
		Code:       "INR",
		Name:       "Indian Rupee",
		Symbol:     "₹",
		MinorUnits: 2,
	},
	"USD": {
		Code:       "USD",
		Name:       "US Dollar",
		Symbol:     "$",
		MinorUnits: 2,
	},
	"EUR": {
		Code:       "EUR",
		Name:       "Euro",
		Symbol:     "€",
		MinorUnits: 2,
	},
	"GBP": {
		Code:       "GBP",
		Name:       "Pound Sterling",
		Symbol:     "£",
		MinorUnits: 2,
	},
	"AED": {
		Code:       "AED",
		Name:       "UAE Dirham",
		Symbol:     "د.إ",
		MinorUnits: 2,
	},
	"JPY": {
		Code:       "JPY",
		Name:       "Japanese Yen",
		Symbol:     "¥",
		MinorUnits: 0,
	},
	"KWD": {
		Code:       "KWD",
		Name:       "Kuwaiti Dinar",
		Symbol:     "د.ك",
		MinorUnits: 3,
	},
}
