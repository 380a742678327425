package instance

import (
	"testing"

	"github.com/shopspring/decimal"
)

const ixbrlSample = `<html>
<body>
<ix:nonFraction name="tifrs-ci:Revenue" contextRef="Duration2024" unitRef="TWD" scale="3" sign="">1,234</ix:nonFraction>
<ix:nonFraction name="tifrs-ci:OperatingExpense" contextRef="Duration2024" unitRef="TWD" scale="0" sign="-">500</ix:nonFraction>
<ix:nonNumeric name="tifrs-ci:CompanyName" contextRef="Instant2024">台積電</ix:nonNumeric>
<xbrli:context id="Duration2024">
  <xbrli:entity><xbrli:identifier>2330</xbrli:identifier></xbrli:entity>
  <xbrli:period><xbrli:startDate>2024-01-01</xbrli:startDate><xbrli:endDate>2024-09-30</xbrli:endDate></xbrli:period>
</xbrli:context>
<xbrli:context id="Instant2024">
  <xbrli:entity><xbrli:identifier>2330</xbrli:identifier></xbrli:entity>
  <xbrli:period><xbrli:instant>2024-09-30</xbrli:instant></xbrli:period>
</xbrli:context>
</body>
</html>`

func TestHTMLBackendCheckAvailable(t *testing.T) {
	b := htmlBackend{}
	if !b.CheckAvailable([]byte(ixbrlSample)) {
		t.Fatalf("expected iXBRL HTML document to be recognized as available")
	}
	if b.CheckAvailable([]byte(`<xbrli:xbrl></xbrli:xbrl>`)) {
		t.Fatalf("plain XML instance should not be recognized by the HTML backend")
	}
}

func TestHTMLBackendExtractFactsAppliesScaleAndSign(t *testing.T) {
	b := htmlBackend{}
	facts, err := b.ExtractFacts([]byte(ixbrlSample))
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}

	var revenue, expense *Fact
	for i := range facts {
		switch facts[i].Concept {
		case "tifrs-ci:Revenue":
			revenue = &facts[i]
		case "tifrs-ci:OperatingExpense":
			expense = &facts[i]
		}
	}
	if revenue == nil || expense == nil {
		t.Fatalf("expected both numeric facts to be extracted, got %+v", facts)
	}
	if revenue.Numeric == nil || !revenue.Numeric.Equal(mustDec(t, "1234000")) {
		t.Fatalf("Revenue = %v, want 1234 * 10^3 = 1234000", revenue.Numeric)
	}
	if expense.Numeric == nil || !expense.Numeric.Equal(mustDec(t, "-500")) {
		t.Fatalf("OperatingExpense = %v, want -500", expense.Numeric)
	}
}

func TestHTMLBackendExtractFactsPreservesNonNumericText(t *testing.T) {
	b := htmlBackend{}
	facts, err := b.ExtractFacts([]byte(ixbrlSample))
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}
	var name *Fact
	for i := range facts {
		if facts[i].Concept == "tifrs-ci:CompanyName" {
			name = &facts[i]
		}
	}
	if name == nil || !name.IsText || name.Text != "台積電" {
		t.Fatalf("CompanyName fact not preserved as text: %+v", name)
	}
}

func TestHTMLBackendExtractContexts(t *testing.T) {
	b := htmlBackend{}
	contexts, err := b.ExtractContexts([]byte(ixbrlSample))
	if err != nil {
		t.Fatalf("ExtractContexts failed: %v", err)
	}
	dur, ok := contexts["Duration2024"]
	if !ok {
		t.Fatalf("Duration2024 context missing")
	}
	if dur.Period.IsInstant {
		t.Fatalf("Duration2024 should be a duration, not instant")
	}
	if dur.EntityIdentifier != "2330" {
		t.Fatalf("EntityIdentifier = %q, want 2330", dur.EntityIdentifier)
	}

	inst, ok := contexts["Instant2024"]
	if !ok {
		t.Fatalf("Instant2024 context missing")
	}
	if !inst.Period.IsInstant {
		t.Fatalf("Instant2024 should be an instant context")
	}
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid fixture decimal %q: %v", s, err)
	}
	return v
}
