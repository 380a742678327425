// Package repository implements the persistent cache (C9): one gorm
// model per crawl endpoint plus one for parsed financial statements,
// each carrying the natural key from §4.9 as a unique composite index
// so that every save is an atomic, last-write-wins upsert. Grounded on
// the teacher's repo/mysql DAO layer, generalized from one symbol-keyed
// financial_data table to the MOPS natural-key schema this spec defines.
package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// financialStatementRow is the persisted form of model.FinancialStatement.
// The item tree itself is stored as a JSON blob (ItemsJSON): it is read
// back whole on every get_report, never queried structurally, so a
// relational decomposition would buy nothing but join overhead.
type financialStatementRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	StockID    string    `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_statement_key"`
	Year       int       `gorm:"column:year;not null;uniqueIndex:uq_statement_key"`
	Quarter    int       `gorm:"column:quarter;not null;uniqueIndex:uq_statement_key"`
	ReportType string    `gorm:"column:report_type;size:32;not null;uniqueIndex:uq_statement_key"`
	Currency   string    `gorm:"column:currency;size:8"`
	UnitScale  int       `gorm:"column:unit_scale"`
	ReportDate time.Time `gorm:"column:report_date"`
	Empty      bool      `gorm:"column:empty"`
	Flat       bool      `gorm:"column:flat"`
	ItemsJSON  string    `gorm:"column:items_json;type:longtext"`
	FetchedAt  time.Time `gorm:"column:fetched_at;not null"`
}

func (financialStatementRow) TableName() string { return "financial_statements" }

// revenueRow mirrors model.RevenueRow; natural key (stock_id, year, month, market).
type revenueRow struct {
	ID                   uint64           `gorm:"primaryKey;autoIncrement"`
	StockID              string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_revenue_key"`
	CompanyName          string           `gorm:"column:company_name;size:128"`
	Year                 int              `gorm:"column:year;not null;uniqueIndex:uq_revenue_key"`
	Month                int              `gorm:"column:month;not null;uniqueIndex:uq_revenue_key"`
	Market               string           `gorm:"column:market;size:8;not null;uniqueIndex:uq_revenue_key"`
	Revenue              *decimal.Decimal `gorm:"column:revenue;type:decimal(24,4)"`
	RevenueLastMonth     *decimal.Decimal `gorm:"column:revenue_last_month;type:decimal(24,4)"`
	RevenueLastYear      *decimal.Decimal `gorm:"column:revenue_last_year;type:decimal(24,4)"`
	MomChange            *decimal.Decimal `gorm:"column:mom_change;type:decimal(24,4)"`
	YoyChange            *decimal.Decimal `gorm:"column:yoy_change;type:decimal(24,4)"`
	AccumulatedRevenue   *decimal.Decimal `gorm:"column:accumulated_revenue;type:decimal(24,4)"`
	AccumulatedLastYear  *decimal.Decimal `gorm:"column:accumulated_last_year;type:decimal(24,4)"`
	AccumulatedYoyChange *decimal.Decimal `gorm:"column:accumulated_yoy_change;type:decimal(24,4)"`
	Comment              string           `gorm:"column:comment;size:256"`
	FetchedAt            time.Time        `gorm:"column:fetched_at;not null"`
}

func (revenueRow) TableName() string { return "revenue_rows" }

// pledgeRow mirrors model.PledgeRow; natural key (stock_id, year, month, title, name).
type pledgeRow struct {
	ID            uint64           `gorm:"primaryKey;autoIncrement"`
	StockID       string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_pledge_key"`
	CompanyName   string           `gorm:"column:company_name;size:128"`
	Year          int              `gorm:"column:year;not null;uniqueIndex:uq_pledge_key"`
	Month         int              `gorm:"column:month;not null;uniqueIndex:uq_pledge_key"`
	Title         string           `gorm:"column:title;size:64;not null;uniqueIndex:uq_pledge_key"`
	Name          string           `gorm:"column:name;size:64;not null;uniqueIndex:uq_pledge_key"`
	CurrentShares *decimal.Decimal `gorm:"column:current_shares;type:decimal(24,4)"`
	PledgedShares *decimal.Decimal `gorm:"column:pledged_shares;type:decimal(24,4)"`
	PledgeRatio   *decimal.Decimal `gorm:"column:pledge_ratio;type:decimal(10,4)"`
	FetchedAt     time.Time        `gorm:"column:fetched_at;not null"`
}

func (pledgeRow) TableName() string { return "pledge_rows" }

// dividendRow mirrors model.DividendRow; natural key (stock_id, year, quarter).
// Quarter is nullable (annual resolution); MySQL treats NULL as distinct
// in a unique index, so an explicit sentinel column backs the key instead.
type dividendRow struct {
	ID                  uint64           `gorm:"primaryKey;autoIncrement"`
	StockID             string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_dividend_key"`
	Year                int              `gorm:"column:year;not null;uniqueIndex:uq_dividend_key"`
	Quarter             *int             `gorm:"column:quarter"`
	QuarterKey          int              `gorm:"column:quarter_key;not null;uniqueIndex:uq_dividend_key"`
	CashDividend        *decimal.Decimal `gorm:"column:cash_dividend;type:decimal(18,6)"`
	StockDividend       *decimal.Decimal `gorm:"column:stock_dividend;type:decimal(18,6)"`
	BoardResolutionDate *time.Time       `gorm:"column:board_resolution_date"`
	FetchedAt           time.Time        `gorm:"column:fetched_at;not null"`
}

func (dividendRow) TableName() string { return "dividend_rows" }

// dividendAnnualSentinel stands in for QuarterKey when Quarter is nil
// (annual resolution), so the composite unique index still enforces
// "at most one annual row per stock_id/year" as §4.9 requires.
const dividendAnnualSentinel = 0

// fundsLendingRow mirrors model.FundsLendingRow; natural key (stock_id, year, month, entity).
type fundsLendingRow struct {
	ID                 uint64           `gorm:"primaryKey;autoIncrement"`
	StockID            string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_funds_lending_key"`
	Year               int              `gorm:"column:year;not null;uniqueIndex:uq_funds_lending_key"`
	Month              int              `gorm:"column:month;not null;uniqueIndex:uq_funds_lending_key"`
	Entity             string           `gorm:"column:entity;size:16;not null;uniqueIndex:uq_funds_lending_key"`
	HasBalance         bool             `gorm:"column:has_balance"`
	CurrentMonth       *decimal.Decimal `gorm:"column:current_month;type:decimal(24,4)"`
	PreviousMonth      *decimal.Decimal `gorm:"column:previous_month;type:decimal(24,4)"`
	MaxLimit           *decimal.Decimal `gorm:"column:max_limit;type:decimal(24,4)"`
	AccumulatedBalance *decimal.Decimal `gorm:"column:accumulated_balance;type:decimal(24,4)"`
	FetchedAt          time.Time        `gorm:"column:fetched_at;not null"`
}

func (fundsLendingRow) TableName() string { return "funds_lending_rows" }

// endorsementRow mirrors model.EndorsementRow; same shape/key as fundsLendingRow
// but persisted to its own table since it is a distinct row-set (§4.8).
type endorsementRow struct {
	ID                 uint64           `gorm:"primaryKey;autoIncrement"`
	StockID            string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_endorsement_key"`
	Year               int              `gorm:"column:year;not null;uniqueIndex:uq_endorsement_key"`
	Month              int              `gorm:"column:month;not null;uniqueIndex:uq_endorsement_key"`
	Entity             string           `gorm:"column:entity;size:16;not null;uniqueIndex:uq_endorsement_key"`
	HasBalance         bool             `gorm:"column:has_balance"`
	CurrentMonth       *decimal.Decimal `gorm:"column:current_month;type:decimal(24,4)"`
	PreviousMonth      *decimal.Decimal `gorm:"column:previous_month;type:decimal(24,4)"`
	MaxLimit           *decimal.Decimal `gorm:"column:max_limit;type:decimal(24,4)"`
	AccumulatedBalance *decimal.Decimal `gorm:"column:accumulated_balance;type:decimal(24,4)"`
	FetchedAt          time.Time        `gorm:"column:fetched_at;not null"`
}

func (endorsementRow) TableName() string { return "endorsement_rows" }

// disclosureRollupRow persists the scalar cross-company rollup that
// rides alongside the two disclosure row-sets; keyed the same as the
// funds-lending/endorsement rows minus entity (it is not entity-scoped).
type disclosureRollupRow struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement"`
	StockID   string           `gorm:"column:stock_id;size:12;not null;uniqueIndex:uq_rollup_key"`
	Year      int              `gorm:"column:year;not null;uniqueIndex:uq_rollup_key"`
	Month     int              `gorm:"column:month;not null;uniqueIndex:uq_rollup_key"`
	Rollup    *decimal.Decimal `gorm:"column:rollup;type:decimal(24,4)"`
	FetchedAt time.Time        `gorm:"column:fetched_at;not null"`
}

func (disclosureRollupRow) TableName() string { return "disclosure_rollup_rows" }

// allModels lists every row type AutoMigrate must provision.
func allModels() []interface{} {
	return []interface{}{
		&financialStatementRow{},
		&revenueRow{},
		&pledgeRow{},
		&dividendRow{},
		&fundsLendingRow{},
		&endorsementRow{},
		&disclosureRollupRow{},
	}
}
