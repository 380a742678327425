package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		input *string
		want  *decimal.Decimal
	}{
		{"nil input is absent", nil, nil},
		{"empty string is absent", strPtr(""), nil},
		{"whitespace only is absent", strPtr("   "), nil},
		{"ascii dash is absent", strPtr("-"), nil},
		{"em dash is absent", strPtr("—"), nil},
		{"en dash is absent", strPtr("–"), nil},
		{"plain integer", strPtr("1234"), decPtr(t, "1234")},
		{"comma thousands separators", strPtr("1,234,567"), decPtr(t, "1234567")},
		{"decimal with commas", strPtr("1,234.56"), decPtr(t, "1234.56")},
		{"surrounding whitespace trimmed", strPtr("  42  "), decPtr(t, "42")},
		{"negative number", strPtr("-42"), decPtr(t, "-42")},
		{"garbage text falls back to absent", strPtr("N/A"), nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Parse(c.input)
			if c.want == nil {
				if got != nil {
					t.Fatalf("Parse(%v) = %v, want absent", derefStr(c.input), got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Parse(%v) = absent, want %v", derefStr(c.input), c.want)
			}
			if !got.Equal(*c.want) {
				t.Fatalf("Parse(%v) = %v, want %v", derefStr(c.input), got, c.want)
			}
		})
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{"", " ", "-", "—", "–", "abc", "1.2.3", "1e500000", "NaN", "Infinity", ",,,", "- 1"}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse(%q) panicked: %v", in, r)
				}
			}()
			Parse(&in)
		}()
	}
}

// TestParseIdempotent exercises P3: parse(format(parse(x))) == parse(x).
func TestParseIdempotent(t *testing.T) {
	inputs := []string{"1,234.50", "-99", "0", "1000000", "3.14159"}
	for _, in := range inputs {
		first := Parse(&in)
		if first == nil {
			t.Fatalf("Parse(%q) unexpectedly absent", in)
		}
		formatted := Format(first)
		second := Parse(&formatted)
		if second == nil || !first.Equal(*second) {
			t.Fatalf("P3 violated for %q: first=%v second=%v", in, first, second)
		}
	}
}

func TestFormatOfNilIsEmpty(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Fatalf("Format(nil) = %q, want empty string", got)
	}
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("test fixture decimal %q invalid: %v", s, err)
	}
	return &d
}

func derefStr(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
