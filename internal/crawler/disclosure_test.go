package crawler

import "testing"

func TestDisclosureScraperParseRowSetsAndRollup(t *testing.T) {
	html := `
<div>
  <table id="funds-lending">
    <tr><td>本公司</td><td>1,000</td><td>900</td><td>5,000</td><td>1,000</td></tr>
    <tr><td>子公司</td><td>0</td><td>0</td><td>2,000</td><td>0</td></tr>
  </table>
  <table class="endorsement-guarantee">
    <tr><td>本公司</td><td>500</td><td>400</td><td>3,000</td><td>500</td></tr>
  </table>
  <div class="cross-company-rollup">12,345</div>
</div>`

	s := NewDisclosureScraper("http://example", Options{})
	result, err := s.Parse([]byte(html), DisclosureQuery{Year: 113, Month: 6, CoID: "2330"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.FundsLending) != 2 {
		t.Fatalf("expected 2 funds-lending rows, got %d", len(result.FundsLending))
	}
	if result.FundsLending[0].Entity != "本公司" || !result.FundsLending[0].HasBalance {
		t.Fatalf("unexpected first funds-lending row: %+v", result.FundsLending[0])
	}
	if result.FundsLending[1].Entity != "子公司" || result.FundsLending[1].HasBalance {
		t.Fatalf("expected second row to have HasBalance=false for a zero balance: %+v", result.FundsLending[1])
	}
	if len(result.EndorsementGuarantee) != 1 {
		t.Fatalf("expected 1 endorsement row, got %d", len(result.EndorsementGuarantee))
	}
	if result.CrossCompanyRollup == nil || result.CrossCompanyRollup.String() != "12345" {
		t.Fatalf("CrossCompanyRollup = %v, want 12345", result.CrossCompanyRollup)
	}
}

func TestDisclosureScraperEmptyTablesYieldEmptyResult(t *testing.T) {
	s := NewDisclosureScraper("http://example", Options{})
	result, err := s.Parse([]byte(`<div></div>`), DisclosureQuery{Year: 113, Month: 6})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.FundsLending) != 0 || len(result.EndorsementGuarantee) != 0 {
		t.Fatalf("expected no rows from an empty document, got %+v", result)
	}
	if result.CrossCompanyRollup != nil {
		t.Fatalf("expected nil rollup when no rollup element is present")
	}
}
