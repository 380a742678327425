package repository

import (
	"context"
	"strconv"
	"sync"

	"data-collection-system/internal/model"
)

// Fake is an in-memory Store used by the service/repository test suites so
// the P4 (single-flight), P5 (force-refresh), and P7 (save/get round-trip)
// properties run unconditionally in CI instead of skipping whenever no
// MySQL instance is reachable (mirrors *Repository's natural-key upsert
// semantics, minus the SQL).
type Fake struct {
	mu           sync.Mutex
	reports      map[model.StockPeriodKey]model.FinancialStatement
	revenue      map[[4]string]model.RevenueRow
	pledge       map[[5]string]model.PledgeRow
	dividend     map[[3]string]model.DividendRow
	fundsLending map[[4]string]model.FundsLendingRow
	endorsement  map[[4]string]model.EndorsementRow
	rollup       map[[3]string]disclosureRollup
}

type disclosureRollup struct {
	stockID string
	year    int
	month   int
	value   *model.DisclosureResult
}

// NewFake returns an empty Fake ready to use.
func NewFake() *Fake {
	return &Fake{
		reports:      make(map[model.StockPeriodKey]model.FinancialStatement),
		revenue:      make(map[[4]string]model.RevenueRow),
		pledge:       make(map[[5]string]model.PledgeRow),
		dividend:     make(map[[3]string]model.DividendRow),
		fundsLending: make(map[[4]string]model.FundsLendingRow),
		endorsement:  make(map[[4]string]model.EndorsementRow),
		rollup:       make(map[[3]string]disclosureRollup),
	}
}

var _ Store = (*Fake)(nil)

func (f *Fake) GetReport(_ context.Context, key model.StockPeriodKey) (*model.FinancialStatement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.reports[key]
	if !ok {
		return nil, nil
	}
	cp := row
	return &cp, nil
}

func (f *Fake) SaveReport(_ context.Context, stmt *model.FinancialStatement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[stmt.Key()] = *stmt
	return nil
}

func (f *Fake) GetRevenueRows(_ context.Context, q RevenueQuery) ([]model.RevenueRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RevenueRow
	for _, row := range f.revenue {
		if row.Year != q.Year || row.Month != q.Month || row.Market != q.Market {
			continue
		}
		if q.StockID != "" && row.StockID != q.StockID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *Fake) SaveRevenueRows(_ context.Context, market string, rows []model.RevenueRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		row.Market = market
		f.revenue[row.NaturalKey()] = row
	}
	return nil
}

func (f *Fake) GetPledgeRows(_ context.Context, q PledgeQuery) ([]model.PledgeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PledgeRow
	for _, row := range f.pledge {
		if row.Year != q.Year || row.Month != q.Month {
			continue
		}
		if q.StockID != "" && row.StockID != q.StockID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *Fake) SavePledgeRows(_ context.Context, rows []model.PledgeRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.pledge[row.NaturalKey()] = row
	}
	return nil
}

func (f *Fake) GetDividendRows(_ context.Context, q DividendQuery) ([]model.DividendRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DividendRow
	for _, row := range f.dividend {
		if row.Year < q.YearStart || row.Year > q.YearEnd {
			continue
		}
		if q.StockID != "" && row.StockID != q.StockID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *Fake) SaveDividendRows(_ context.Context, rows []model.DividendRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.dividend[row.NaturalKey()] = row
	}
	return nil
}

// GetDisclosureRows mirrors *Repository's three-table union: funds-lending
// and endorsement rows are collected across every stock matching (year,
// month) [and stock_id, if given], and the rollup is whichever matching
// entry map iteration reaches first (Go map order is unspecified) — the
// same underspecified tie-break the real implementation has via its
// unordered SQL scan.
func (f *Fake) GetDisclosureRows(_ context.Context, q DisclosureQuery) (*model.DisclosureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result model.DisclosureResult
	for _, row := range f.fundsLending {
		if row.Year != q.Year || row.Month != q.Month {
			continue
		}
		if q.StockID != "" && row.StockID != q.StockID {
			continue
		}
		result.FundsLending = append(result.FundsLending, row)
	}
	for _, row := range f.endorsement {
		if row.Year != q.Year || row.Month != q.Month {
			continue
		}
		if q.StockID != "" && row.StockID != q.StockID {
			continue
		}
		result.EndorsementGuarantee = append(result.EndorsementGuarantee, row)
	}
	for _, ru := range f.rollup {
		if ru.year != q.Year || ru.month != q.Month {
			continue
		}
		if q.StockID != "" && ru.stockID != q.StockID {
			continue
		}
		result.CrossCompanyRollup = ru.value.CrossCompanyRollup
		break
	}

	if len(result.FundsLending) == 0 && len(result.EndorsementGuarantee) == 0 && result.CrossCompanyRollup == nil {
		return nil, nil
	}
	return &result, nil
}

func (f *Fake) SaveDisclosureRows(_ context.Context, stockID string, year, month int, result *model.DisclosureResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range result.FundsLending {
		f.fundsLending[row.NaturalKey()] = row
	}
	for _, row := range result.EndorsementGuarantee {
		f.endorsement[row.NaturalKey()] = row
	}
	f.rollup[[3]string{stockID, strconv.Itoa(year), strconv.Itoa(month)}] = disclosureRollup{
		stockID: stockID, year: year, month: month, value: result,
	}
	return nil
}
