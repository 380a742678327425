// Package numeric implements the single canonical string→fixed-point
// value parser (C1) that every other component routes raw MOPS text
// through, so that "absent" has exactly one meaning across the system.
package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// nullTokens 是 MOPS 页面里用来表示空值的标记：半形/全形破折号。
var nullTokens = map[string]bool{
	"-": true,
	"—": true,
	"–": true,
}

// Parse implements §4.1 exactly: strip whitespace, drop ASCII comma
// separators, treat empty/dash tokens as absent, and fall back to
// absent on any parse failure. It never panics; callers only ever see
// "absent" (nil) or a valid fixed-point decimal.
func Parse(input *string) *decimal.Decimal {
	if input == nil {
		return nil
	}
	s := strings.TrimSpace(*input)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || nullTokens[s] {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ParseString is a convenience wrapper for callers holding a non-pointer
// string (common when the caller already knows the field is present).
func ParseString(input string) *decimal.Decimal {
	return Parse(&input)
}

// Format renders a decimal back to its canonical string form, the
// inverse used by P3 (parse(format(parse(x))) == parse(x)).
func Format(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
