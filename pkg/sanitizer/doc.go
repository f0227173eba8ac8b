// Package sanitizer provides input normalization for facility and booking data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors.
//
// The package is designed to be used across services for consistent data
// normalization before validation and storage.
//
// Normalization includes:
//   - Vehicle plates: Uppercase, strip separators - "ka-01 ab 1234" becomes "KA01AB1234"
//   - URLs: Enforce HTTPS, lowercase domains, preserve paths and query parameters
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Keys: Lowercase, replace special characters with underscores - "Tel Aviv" becomes "tel_aviv"
//   - Slices: Remove duplicates and empty values after normalization
//   - Prices: Clamp to valid ranges, round to two decimals
package sanitizer
