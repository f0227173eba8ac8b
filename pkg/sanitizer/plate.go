package sanitizer

import (
	"regexp"
	"strings"
)

var (
	rePlateSeparators = regexp.MustCompile(`[\s\-._]+`)
	reValidPlate      = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)
)

// NormalizePlate uppercases a vehicle registration number and strips
// separators, so "ka-01 ab.1234" becomes "KA01AB1234". Returns the empty
// string when the result is not a plausible plate.
func NormalizePlate(plate string) string {
	p := strings.ToUpper(strings.TrimSpace(plate))
	p = rePlateSeparators.ReplaceAllString(p, "")
	if !reValidPlate.MatchString(p) {
		return ""
	}
	return p
}
