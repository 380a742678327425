package crawler

import "testing"

func revenueRowHTML(stockID, revenue string) string {
	return "<tr><td>" + stockID + "</td><td>Some Co</td><td>" + revenue +
		"</td><td>100</td><td>90</td><td>5.0</td><td>10.0</td><td>300</td><td>270</td><td>11.1</td><td>ok</td></tr>"
}

func TestRevenueScraperParse(t *testing.T) {
	html := "<table>" +
		"<tr><td>header</td></tr>" +
		revenueRowHTML("2330", "1,234,000") +
		revenueRowHTML("2317", "987,000") +
		"</table>"

	s := NewRevenueScraper("http://example", nil, Options{})
	rows, err := s.Parse([]byte(html), RevenueQuery{Market: "sii", Year: 113, Month: 6, Type: "0"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].StockID != "2330" || rows[0].Revenue == nil || rows[0].Revenue.String() != "1234000" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[0].Year != 113 || rows[0].Month != 6 || rows[0].Market != "sii" {
		t.Fatalf("query context not attached to row: %+v", rows[0])
	}
}

func TestRevenueScraperSkipsShortRows(t *testing.T) {
	html := "<table><tr><td>only</td><td>two cols</td></tr></table>"
	s := NewRevenueScraper("http://example", nil, Options{})
	rows, err := s.Parse([]byte(html), RevenueQuery{Market: "sii", Year: 113, Month: 6})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected rows with fewer than 10 columns to be ignored entirely, got %d", len(rows))
	}
}

func TestRevenueScraperSkipRatioExceedsThreshold(t *testing.T) {
	// 4 structurally-valid rows (>=10 tds) but only 1 has a usable stock_id
	// and revenue pair -> 3/4 skipped, well above the 25% threshold.
	badRow := "<tr><td></td><td>x</td><td></td><td>x</td><td>x</td><td>x</td><td>x</td><td>x</td><td>x</td><td>x</td></tr>"
	html := "<table>" + revenueRowHTML("2330", "1,000") + badRow + badRow + badRow + "</table>"

	s := NewRevenueScraper("http://example", nil, Options{})
	_, err := s.Parse([]byte(html), RevenueQuery{Market: "sii", Year: 113, Month: 6})
	if err == nil {
		t.Fatalf("expected a row-skip-ratio error when most rows fail to parse")
	}
}

func TestRevenueScraperEmptyDocumentYieldsZeroRows(t *testing.T) {
	s := NewRevenueScraper("http://example", nil, Options{})
	// goquery/net-html tolerate almost anything, so exercise the scraper
	// with truly empty input to confirm it degrades to zero rows, not a panic.
	rows, err := s.Parse([]byte(""), RevenueQuery{Market: "sii", Year: 113, Month: 6})
	if err != nil {
		t.Fatalf("empty document should parse to zero rows, not error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected zero rows from empty document, got %d", len(rows))
	}
}
