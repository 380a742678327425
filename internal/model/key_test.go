package model

import "testing"

func TestStockPeriodKeyValidate(t *testing.T) {
	cases := []struct {
		name    string
		key     StockPeriodKey
		wantErr bool
	}{
		{"valid", StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: ReportTypeIncomeStatement}, false},
		{"six-char stock id", StockPeriodKey{StockID: "006208", Year: 113, Quarter: 1, ReportType: ReportTypeBalanceSheet}, false},
		{"stock id too short", StockPeriodKey{StockID: "23", Year: 113, Quarter: 1, ReportType: ReportTypeBalanceSheet}, true},
		{"stock id too long", StockPeriodKey{StockID: "1234567", Year: 113, Quarter: 1, ReportType: ReportTypeBalanceSheet}, true},
		{"year below ROC range", StockPeriodKey{StockID: "2330", Year: 101, Quarter: 1, ReportType: ReportTypeBalanceSheet}, true},
		{"year above ROC range", StockPeriodKey{StockID: "2330", Year: 201, Quarter: 1, ReportType: ReportTypeBalanceSheet}, true},
		{"quarter zero", StockPeriodKey{StockID: "2330", Year: 113, Quarter: 0, ReportType: ReportTypeBalanceSheet}, true},
		{"quarter five", StockPeriodKey{StockID: "2330", Year: 113, Quarter: 5, ReportType: ReportTypeBalanceSheet}, true},
		{"unknown report type", StockPeriodKey{StockID: "2330", Year: 113, Quarter: 1, ReportType: "nonsense"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.key.Validate()
			if c.wantErr && err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestStockPeriodKeyGregorianYear(t *testing.T) {
	k := StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: ReportTypeIncomeStatement}
	if got := k.GregorianYear(); got != 2024 {
		t.Fatalf("GregorianYear() = %d, want 2024", got)
	}
}

func TestStockPeriodKeyStringIsStableAndDistinct(t *testing.T) {
	a := StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: ReportTypeIncomeStatement}
	b := StockPeriodKey{StockID: "2330", Year: 113, Quarter: 4, ReportType: ReportTypeIncomeStatement}
	if a.String() == b.String() {
		t.Fatalf("distinct keys produced the same cache key: %q", a.String())
	}
	if a.String() != (StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: ReportTypeIncomeStatement}).String() {
		t.Fatalf("String() is not stable for identical keys")
	}
}
