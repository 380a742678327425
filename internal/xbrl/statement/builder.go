// Package statement implements the statement builder (C7), the
// algorithmic core of the pipeline: it turns parsed facts, contexts,
// calculation/presentation arcs, and label maps into the financial
// statement tree returned to callers.
package statement

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"data-collection-system/internal/model"
	"data-collection-system/internal/xbrl/instance"
	"data-collection-system/internal/xbrl/linkbase"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// roleByReportType implements the §4.7 "Role selection" table.
var roleByReportType = map[model.ReportType]string{
	model.ReportTypeBalanceSheet:    "StatementOfFinancialPosition",
	model.ReportTypeIncomeStatement: "StatementOfComprehensiveIncome",
	model.ReportTypeCashFlow:        "StatementOfCashFlows",
	model.ReportTypeEquityStatement: "StatementOfChangesInEquity",
}

// quarterEndMonthDay implements the §4.7 period-end table: month ∈
// {03,06,09,12}, day ∈ {31,30,30,31}.
var quarterEndMonthDay = map[int][2]int{
	1: {3, 31},
	2: {6, 30},
	3: {9, 30},
	4: {12, 31},
}

// Input bundles everything C4/C5/C6 produced for one document, the
// exact shape §4.7 takes as its input.
type Input struct {
	Facts        []instance.Fact
	Contexts     map[string]instance.Context
	Calculation  linkbase.ArcSet
	Presentation linkbase.ArcSet
	Labels       *linkbase.LabelSet
	// HasPresentationLinkbase distinguishes "this package carried no
	// presentation linkbase at all" (flat fallback) from "the linkbase
	// exists but doesn't define this role" (EmptyStatement). Set by the
	// caller from whether C3 located a *_pre.xml file.
	HasPresentationLinkbase bool
	// RoleNamespaceConcepts supports the presentation-linkbase-missing
	// fallback (§4.7 "Failure semantics"): the concepts listed for each
	// role, keyed by role name. Build reads only the selected role's
	// entry and does no namespace filtering of its own.
	RoleNamespaceConcepts map[string][]string
}

// Build implements §4.7 end to end.
func Build(in Input, key model.StockPeriodKey) (*model.FinancialStatement, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	endDate := periodEndDate(key)
	stmt := &model.FinancialStatement{
		StockID:    key.StockID,
		Year:       key.Year,
		Quarter:    key.Quarter,
		ReportType: key.ReportType,
		ReportDate: endDate,
		FetchedAt:  time.Now(),
	}

	role, ok := roleByReportType[key.ReportType]
	if !ok {
		stmt.Empty = true
		return stmt, nil
	}

	contextID, found := selectContext(in.Contexts, key, endDate)
	if !found {
		stmt.Empty = true
		return stmt, nil
	}

	factsByKey := indexFacts(in.Facts)
	stmt.Currency, stmt.UnitScale = deriveUnitInfo(in.Facts, contextID)

	if !in.HasPresentationLinkbase {
		stmt.Flat = true
		stmt.Items = flatFallback(in, factsByKey, contextID, role)
		return stmt, nil
	}

	if _, ok := in.Presentation[role]; !ok {
		stmt.Empty = true
		return stmt, nil
	}

	visited := make(map[string]bool)
	stmt.Items = buildChildren(role, 0, in, factsByKey, contextID, visited)
	return stmt, nil
}

// periodEndDate implements the ROC-year end-date computation.
func periodEndDate(key model.StockPeriodKey) time.Time {
	md := quarterEndMonthDay[key.Quarter]
	return time.Date(key.GregorianYear(), time.Month(md[0]), md[1], 0, 0, 0, 0, time.UTC)
}

// selectContext implements §4.7 "Context selection": instant for balance
// sheets, duration (fiscal-year-start .. end-date) otherwise, with
// entity-match then empty-scenario tie-breaks.
func selectContext(contexts map[string]instance.Context, key model.StockPeriodKey, endDate time.Time) (string, bool) {
	yearStart := time.Date(key.GregorianYear(), 1, 1, 0, 0, 0, 0, time.UTC)

	var candidates []string
	for id, ctx := range contexts {
		if key.ReportType == model.ReportTypeBalanceSheet {
			if ctx.Period.IsInstant && sameDay(ctx.Period.Instant, endDate) {
				candidates = append(candidates, id)
			}
			continue
		}
		if !ctx.Period.IsInstant && sameDay(ctx.Period.EndDate, endDate) && sameDay(ctx.Period.StartDate, yearStart) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	// Tie-break 1: entity_identifier matches stock_id.
	var entityMatched []string
	for _, id := range candidates {
		if contexts[id].EntityIdentifier == key.StockID {
			entityMatched = append(entityMatched, id)
		}
	}
	if len(entityMatched) > 0 {
		candidates = entityMatched
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	// Tie-break 2: prefer empty scenario/segment.
	for _, id := range candidates {
		if !contexts[id].HasScenario {
			return id, true
		}
	}
	sort.Strings(candidates)
	return candidates[0], true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

type factKey struct {
	concept    string
	contextRef string
}

// deriveUnitInfo implements the §3/§6 Currency and UnitScale output
// fields: Currency is the local-name of the selected context's first
// (document-order) numeric fact's unitRef (e.g. "iso4217:TWD" → "TWD");
// UnitScale is 10^scale taken from that same fact's iXBRL scale
// attribute (§4.5), the issuer's power-of-ten multiplier. A scale of
// zero or below (plain XML-instance facts carry none) gives UnitScale 1;
// both fields are left zero-valued only when the selected context has
// no numeric fact with a unitRef.
func deriveUnitInfo(facts []instance.Fact, contextID string) (string, int) {
	for _, f := range facts {
		if f.ContextRef != contextID || f.UnitRef == "" || f.Numeric == nil {
			continue
		}
		currency := f.UnitRef
		if idx := strings.LastIndex(currency, ":"); idx >= 0 {
			currency = currency[idx+1:]
		}
		return currency, intPow10(f.Scale)
	}
	return "", 0
}

func intPow10(scale int) int {
	if scale <= 0 {
		return 1
	}
	n := 1
	for i := 0; i < scale; i++ {
		n *= 10
	}
	return n
}

func indexFacts(facts []instance.Fact) map[factKey]instance.Fact {
	idx := make(map[factKey]instance.Fact, len(facts))
	for _, f := range facts {
		idx[factKey{concept: f.Concept, contextRef: f.ContextRef}] = f
	}
	return idx
}

// buildChildren recursively walks the presentation tree rooted at
// fromConcept, binding facts and weights as it goes. visited guards
// against the (invalid, but possible in malformed linkbases) cyclic
// presentation graph per design note 9's cycle-dropping guidance.
func buildChildren(fromConcept string, depth int, in Input, facts map[factKey]instance.Fact, contextID string, visited map[string]bool) []*model.StatementItem {
	arcs := in.Presentation[fromConcept]
	if len(arcs) == 0 {
		return nil
	}

	items := make([]*model.StatementItem, 0, len(arcs))
	for _, arc := range arcs {
		if visited[arc.To] {
			continue // cycle-closing arc (or a would-be duplicate node), dropped per design note 9 / P1
		}
		visited[arc.To] = true

		item := &model.StatementItem{
			Concept: arc.To,
			Weight:  weightFor(in.Calculation, fromConcept, arc.To),
			Depth:   depth + 1,
			LabelZh: labelFor(in.Labels, arc.To, true),
			LabelEn: labelFor(in.Labels, arc.To, false),
		}
		if f, ok := facts[factKey{concept: arc.To, contextRef: contextID}]; ok && f.Numeric != nil {
			v := *f.Numeric
			item.Value = &v
		}
		item.Children = buildChildren(arc.To, depth+1, in, facts, contextID, visited)
		items = append(items, item)
	}
	return items
}

// weightFor implements "each node's displayed weight attribute reflects
// its arc from its parent (default +1)".
func weightFor(calc linkbase.ArcSet, from, to string) decimal.Decimal {
	for _, arc := range calc[from] {
		if arc.To == to {
			return decimalFromFloat(arc.Weight)
		}
	}
	return decimalFromFloat(1)
}

// labelFor implements "fall back to concept local-name when absent".
func labelFor(labels *linkbase.LabelSet, concept string, zh bool) string {
	if labels != nil {
		m := labels.En
		if zh {
			m = labels.Zh
		}
		if v, ok := m[concept]; ok {
			return v
		}
	}
	return concept
}

// flatFallback implements "Missing presentation linkbase altogether →
// fall back to a flat list of all facts whose concepts match any concept
// in the taxonomy's schema file under that role namespace."
func flatFallback(in Input, facts map[factKey]instance.Fact, contextID, role string) []*model.StatementItem {
	concepts := in.RoleNamespaceConcepts[role]
	items := make([]*model.StatementItem, 0, len(concepts))
	for _, concept := range concepts {
		f, ok := facts[factKey{concept: concept, contextRef: contextID}]
		if !ok {
			continue
		}
		item := &model.StatementItem{
			Concept: concept,
			Weight:  decimalFromFloat(1),
			LabelZh: labelFor(in.Labels, concept, true),
			LabelEn: labelFor(in.Labels, concept, false),
		}
		if f.Numeric != nil {
			v := *f.Numeric
			item.Value = &v
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Concept < items[j].Concept })
	return items
}

// VerifyCalculationConsistency implements P2: for every calculation
// relationship whose parent and all children have non-null values,
// |parent − Σ(weight_i × child_i)| ≤ max(1, |parent| × 1e-6). It is test
// support only — the builder itself never recomputes a value from its
// children (§4.7: "the value itself is the raw bound fact").
func VerifyCalculationConsistency(stmt *model.FinancialStatement, calc linkbase.ArcSet) []string {
	var violations []string
	index := make(map[string]*model.StatementItem)
	stmt.Walk(func(item *model.StatementItem) {
		index[item.Concept] = item
	})

	for parentConcept, arcs := range calc {
		parent, ok := index[parentConcept]
		if !ok || parent.Value == nil {
			continue
		}
		sum := parent.Value.Sub(*parent.Value) // zero, same scale family
		allPresent := true
		for _, arc := range arcs {
			child, ok := index[arc.To]
			if !ok || child.Value == nil {
				allPresent = false
				break
			}
			contribution := child.Value.Mul(decimalFromFloat(arc.Weight))
			sum = sum.Add(contribution)
		}
		if !allPresent {
			continue
		}
		diff := parent.Value.Sub(sum).Abs()
		tolerance := parent.Value.Abs().Mul(decimalFromFloat(1e-6))
		if tolerance.LessThan(decimalFromFloat(1)) {
			tolerance = decimalFromFloat(1)
		}
		if diff.GreaterThan(tolerance) {
			violations = append(violations, fmt.Sprintf("%s: |%s - %s| exceeds tolerance", parentConcept, parent.Value.String(), sum.String()))
		}
	}
	return violations
}
