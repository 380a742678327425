package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementItem is one node of the hierarchical tree mirroring a
// presentation-linkbase role. Value is nil when no fact bound to the
// node's (concept, selected context) pair.
type StatementItem struct {
	Concept  string           `json:"concept"`
	LabelZh  string           `json:"label_zh"`
	LabelEn  string           `json:"label_en"`
	Value    *decimal.Decimal `json:"value"`
	Weight   decimal.Decimal  `json:"weight"`
	Depth    int              `json:"depth"`
	Children []*StatementItem `json:"children,omitempty"`
}

// FinancialStatement is the output of the statement builder (C7): a
// fully bound, ordered tree for one (stock_id, year, quarter, report_type).
type FinancialStatement struct {
	StockID    string           `json:"stock_id"`
	Year       int              `json:"year"`
	Quarter    int              `json:"quarter"`
	ReportType ReportType       `json:"report_type"`
	Currency   string           `json:"currency"`
	UnitScale  int              `json:"unit_scale"`
	ReportDate time.Time        `json:"report_date"`
	Items      []*StatementItem `json:"items"`

	// Empty marks a role that resolved to no presentation tree at all
	// (§4.7 "Missing role → EmptyStatement"); this is a flag, not an error.
	Empty bool `json:"empty"`

	// Flat marks the §4.7 fallback: the presentation linkbase itself was
	// missing and Items is a flat, concept-sorted list instead of a tree.
	Flat bool `json:"flat,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Key reconstructs this statement's identity tuple.
func (s *FinancialStatement) Key() StockPeriodKey {
	return StockPeriodKey{StockID: s.StockID, Year: s.Year, Quarter: s.Quarter, ReportType: s.ReportType}
}

// Walk calls fn for every item in the tree, pre-order.
func (s *FinancialStatement) Walk(fn func(*StatementItem)) {
	var visit func([]*StatementItem)
	visit = func(items []*StatementItem) {
		for _, it := range items {
			fn(it)
			visit(it.Children)
		}
	}
	visit(s.Items)
}
