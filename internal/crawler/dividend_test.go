package crawler

import "testing"

func TestDividendScraperParseQuarterly(t *testing.T) {
	html := "<table><tr><td>2024</td><td>3</td><td>1.5</td><td>0.5</td><td>2024/11/15</td></tr></table>"
	s := NewDividendScraper("http://example", Options{})
	rows, err := s.Parse([]byte(html), DividendQuery{CoID: "2330"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.StockID != "2330" || row.Year != 2024 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Quarter == nil || *row.Quarter != 3 {
		t.Fatalf("Quarter = %v, want 3", row.Quarter)
	}
	if row.BoardResolutionDate == nil {
		t.Fatalf("expected board resolution date to parse")
	}
}

func TestDividendScraperParseAnnualHasNilQuarter(t *testing.T) {
	// The "全年" (annual) token fails strconv.Atoi and yields a nil Quarter.
	html := "<table><tr><td>2024</td><td>全年</td><td>4.0</td><td>0</td><td>2025/03/01</td></tr></table>"
	s := NewDividendScraper("http://example", Options{})
	rows, err := s.Parse([]byte(html), DividendQuery{CoID: "2330"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Quarter != nil {
		t.Fatalf("expected nil Quarter for annual resolution, got %v", *rows[0].Quarter)
	}
}

func TestDividendScraperSkipsRowsWithUnparsableYear(t *testing.T) {
	html := "<table><tr><td>not-a-year</td><td>1</td><td>1.0</td><td>0</td><td>2024/11/15</td></tr></table>"
	s := NewDividendScraper("http://example", Options{})
	rows, err := s.Parse([]byte(html), DividendQuery{CoID: "2330"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected the row with an unparsable year to be skipped, got %d rows", len(rows))
	}
}
