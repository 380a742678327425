// Package model holds the domain types shared by the XBRL pipeline, the
// HTML crawl pipeline, and the read-through cache: the stock-period
// identity tuple, the parsed financial statement tree, and the flat
// crawl-row schemas.
package model

import (
	"fmt"
	"regexp"

	"data-collection-system/pkg/errors"
)

// ReportType enumerates the four statements MOPS XBRL packages carry.
type ReportType string

const (
	ReportTypeBalanceSheet    ReportType = "balance_sheet"
	ReportTypeIncomeStatement ReportType = "income_statement"
	ReportTypeCashFlow        ReportType = "cash_flow"
	ReportTypeEquityStatement ReportType = "equity_statement"
)

// validReportTypes 有效的报告类型集合
var validReportTypes = map[ReportType]bool{
	ReportTypeBalanceSheet:    true,
	ReportTypeIncomeStatement: true,
	ReportTypeCashFlow:        true,
	ReportTypeEquityStatement: true,
}

var stockIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,6}$`)

// StockPeriodKey is the primary identity used throughout the system:
// (stock_id, year, quarter, report_type). Year is the ROC calendar year.
type StockPeriodKey struct {
	StockID    string
	Year       int
	Quarter    int
	ReportType ReportType
}

// String renders a stable cache/single-flight key for this tuple.
func (k StockPeriodKey) String() string {
	return fmt.Sprintf("%s:%d:%d:%s", k.StockID, k.Year, k.Quarter, k.ReportType)
}

// Validate 校验四元组是否符合 §3 的数据模型约束
func (k StockPeriodKey) Validate() error {
	if !stockIDPattern.MatchString(k.StockID) {
		return errors.Newf(errors.ErrCodeInvalidParam, "invalid stock_id: %q", k.StockID)
	}
	if k.Year < 102 || k.Year > 200 {
		return errors.Newf(errors.ErrCodeInvalidParam, "year out of ROC range [102,200]: %d", k.Year)
	}
	if k.Quarter < 1 || k.Quarter > 4 {
		return errors.Newf(errors.ErrCodeInvalidParam, "quarter out of range [1,4]: %d", k.Quarter)
	}
	if !validReportTypes[k.ReportType] {
		return errors.Newf(errors.ErrCodeInvalidParam, "unknown report_type: %q", k.ReportType)
	}
	return nil
}

// GregorianYear returns the Western calendar year (ROC year + 1911).
func (k StockPeriodKey) GregorianYear() int {
	return k.Year + 1911
}
