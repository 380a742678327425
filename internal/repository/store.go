package repository

import (
	"context"

	"data-collection-system/internal/model"
)

// Store is the C9 contract the service façade (C10) depends on: get/save
// for the parsed-statement table plus get/save for each crawl endpoint's
// natural-keyed rows (§4.9). *Repository is the gorm/MySQL implementation;
// Fake is the in-memory implementation tests use so the single-flight
// (P4), force-refresh (P5), and round-trip (P7) properties run without a
// live database, per design note 9 (explicit composition, fakes over
// global singletons).
type Store interface {
	GetReport(ctx context.Context, key model.StockPeriodKey) (*model.FinancialStatement, error)
	SaveReport(ctx context.Context, stmt *model.FinancialStatement) error

	GetRevenueRows(ctx context.Context, q RevenueQuery) ([]model.RevenueRow, error)
	SaveRevenueRows(ctx context.Context, market string, rows []model.RevenueRow) error

	GetPledgeRows(ctx context.Context, q PledgeQuery) ([]model.PledgeRow, error)
	SavePledgeRows(ctx context.Context, rows []model.PledgeRow) error

	GetDividendRows(ctx context.Context, q DividendQuery) ([]model.DividendRow, error)
	SaveDividendRows(ctx context.Context, rows []model.DividendRow) error

	GetDisclosureRows(ctx context.Context, q DisclosureQuery) (*model.DisclosureResult, error)
	SaveDisclosureRows(ctx context.Context, stockID string, year, month int, result *model.DisclosureResult) error
}

var _ Store = (*Repository)(nil)
