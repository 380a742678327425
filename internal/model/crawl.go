package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RevenueRow is one row of the monthly-revenue crawl (§4.8 "Revenue scraper").
type RevenueRow struct {
	StockID              string           `json:"stock_id"`
	CompanyName          string           `json:"company_name"`
	Year                 int              `json:"year"`
	Month                int              `json:"month"`
	Market               string           `json:"market"`
	Revenue              *decimal.Decimal `json:"revenue"`
	RevenueLastMonth     *decimal.Decimal `json:"revenue_last_month"`
	RevenueLastYear      *decimal.Decimal `json:"revenue_last_year"`
	MomChange            *decimal.Decimal `json:"mom_change"`
	YoyChange            *decimal.Decimal `json:"yoy_change"`
	AccumulatedRevenue   *decimal.Decimal `json:"accumulated_revenue"`
	AccumulatedLastYear  *decimal.Decimal `json:"accumulated_last_year"`
	AccumulatedYoyChange *decimal.Decimal `json:"accumulated_yoy_change"`
	Comment              string           `json:"comment"`
	FetchedAt            time.Time        `json:"fetched_at"`
}

// NaturalKey implements the §4.9 natural key for revenue rows.
func (r RevenueRow) NaturalKey() [4]string {
	return [4]string{r.StockID, itoa(r.Year), itoa(r.Month), r.Market}
}

// PledgeRow is one row of the share-pledge crawl (§4.8 "Pledge scraper").
type PledgeRow struct {
	StockID        string           `json:"stock_id"`
	CompanyName    string           `json:"company_name"`
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	Title          string           `json:"title"`
	Name           string           `json:"name"`
	CurrentShares  *decimal.Decimal `json:"current_shares"`
	PledgedShares  *decimal.Decimal `json:"pledged_shares"`
	PledgeRatio    *decimal.Decimal `json:"pledge_ratio"`
	FetchedAt      time.Time        `json:"fetched_at"`
}

func (r PledgeRow) NaturalKey() [5]string {
	return [5]string{r.StockID, itoa(r.Year), itoa(r.Month), r.Title, r.Name}
}

// DividendRow is one row of the dividend crawl (§4.8 "Dividend scraper").
// Quarter is nil for an annual resolution.
type DividendRow struct {
	StockID             string           `json:"stock_id"`
	Year                int              `json:"year"`
	Quarter             *int             `json:"quarter"`
	CashDividend        *decimal.Decimal `json:"cash_dividend"`
	StockDividend       *decimal.Decimal `json:"stock_dividend"`
	BoardResolutionDate *time.Time       `json:"board_resolution_date"`
	FetchedAt           time.Time        `json:"fetched_at"`
}

func (r DividendRow) NaturalKey() [3]string {
	q := "A"
	if r.Quarter != nil {
		q = itoa(*r.Quarter)
	}
	return [3]string{r.StockID, itoa(r.Year), q}
}

// DisclosureEntity distinguishes the parent company from subsidiaries
// in the §4.8 "Disclosure scraper" row-sets.
type DisclosureEntity string

const (
	DisclosureEntitySelf       DisclosureEntity = "本公司"
	DisclosureEntitySubsidiary DisclosureEntity = "子公司"
)

// FundsLendingRow and EndorsementRow share the same shape; they are kept
// as distinct types because they are persisted to distinct tables and
// distinguished by which row-set the scraper produced them in.
type FundsLendingRow struct {
	StockID            string           `json:"stock_id"`
	Year               int              `json:"year"`
	Month              int              `json:"month"`
	Entity             DisclosureEntity `json:"entity"`
	HasBalance         bool             `json:"has_balance"`
	CurrentMonth       *decimal.Decimal `json:"current_month"`
	PreviousMonth      *decimal.Decimal `json:"previous_month"`
	MaxLimit           *decimal.Decimal `json:"max_limit"`
	AccumulatedBalance *decimal.Decimal `json:"accumulated_balance"`
	FetchedAt          time.Time        `json:"fetched_at"`
}

func (r FundsLendingRow) NaturalKey() [4]string {
	return [4]string{r.StockID, itoa(r.Year), itoa(r.Month), string(r.Entity)}
}

type EndorsementRow struct {
	StockID            string           `json:"stock_id"`
	Year               int              `json:"year"`
	Month              int              `json:"month"`
	Entity             DisclosureEntity `json:"entity"`
	HasBalance         bool             `json:"has_balance"`
	CurrentMonth       *decimal.Decimal `json:"current_month"`
	PreviousMonth      *decimal.Decimal `json:"previous_month"`
	MaxLimit           *decimal.Decimal `json:"max_limit"`
	AccumulatedBalance *decimal.Decimal `json:"accumulated_balance"`
	FetchedAt          time.Time        `json:"fetched_at"`
}

func (r EndorsementRow) NaturalKey() [4]string {
	return [4]string{r.StockID, itoa(r.Year), itoa(r.Month), string(r.Entity)}
}

// DisclosureResult bundles the two row-sets plus the scalar cross-company
// rollup the disclosure endpoint returns alongside them.
type DisclosureResult struct {
	FundsLending         []FundsLendingRow `json:"funds_lending"`
	EndorsementGuarantee []EndorsementRow  `json:"endorsement_guarantee"`
	CrossCompanyRollup   *decimal.Decimal  `json:"cross_company_rollup"`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
