package statement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"data-collection-system/internal/model"
	"data-collection-system/internal/xbrl/instance"
	"data-collection-system/internal/xbrl/linkbase"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid fixture decimal %q: %v", s, err)
	}
	return v
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	v := dec(t, s)
	return &v
}

func balanceSheetKey() model.StockPeriodKey {
	return model.StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: model.ReportTypeBalanceSheet}
}

func TestPeriodEndDate(t *testing.T) {
	cases := []struct {
		quarter int
		want    time.Time
	}{
		{1, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{2, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)},
		{3, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
		{4, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		key := model.StockPeriodKey{StockID: "2330", Year: 113, Quarter: c.quarter, ReportType: model.ReportTypeIncomeStatement}
		if got := periodEndDate(key); !got.Equal(c.want) {
			t.Fatalf("periodEndDate(quarter=%d) = %v, want %v", c.quarter, got, c.want)
		}
	}
}

func TestBuildUnknownReportTypeIsRejected(t *testing.T) {
	key := model.StockPeriodKey{StockID: "2330", Year: 113, Quarter: 1, ReportType: model.ReportType("nonsense")}
	stmt, err := Build(Input{}, key)
	if err == nil {
		t.Fatalf("expected Validate() to reject an unknown report type before Build runs")
	}
	_ = stmt
}

func TestBuildNoMatchingContextIsEmpty(t *testing.T) {
	key := balanceSheetKey()
	in := Input{
		Contexts:                map[string]instance.Context{},
		HasPresentationLinkbase: true,
		Presentation:            linkbase.ArcSet{"StatementOfFinancialPosition": nil},
	}
	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !stmt.Empty {
		t.Fatalf("expected Empty statement when no context matches the period end date")
	}
}

func TestBuildMissingPresentationRoleIsEmpty(t *testing.T) {
	key := balanceSheetKey()
	in := Input{
		Contexts: map[string]instance.Context{
			"Instant2024Q3": {
				ID:               "Instant2024Q3",
				EntityIdentifier: "2330",
				Period:           instance.Period{IsInstant: true, Instant: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
			},
		},
		HasPresentationLinkbase: true,
		Presentation:            linkbase.ArcSet{},
	}
	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !stmt.Empty {
		t.Fatalf("expected Empty statement when the linkbase defines no arcs for the selected role")
	}
}

func TestBuildFlatFallbackWhenNoPresentationLinkbase(t *testing.T) {
	key := balanceSheetKey()
	contextID := "Instant2024Q3"
	in := Input{
		Contexts: map[string]instance.Context{
			contextID: {
				ID:               contextID,
				EntityIdentifier: "2330",
				Period:           instance.Period{IsInstant: true, Instant: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
			},
		},
		Facts: []instance.Fact{
			{Concept: "tifrs-ci:Assets", ContextRef: contextID, Numeric: decPtr(t, "1000")},
			{Concept: "tifrs-ci:Cash", ContextRef: contextID, Numeric: decPtr(t, "400")},
		},
		HasPresentationLinkbase: false,
		RoleNamespaceConcepts: map[string][]string{
			"StatementOfFinancialPosition": {"tifrs-ci:Assets", "tifrs-ci:Cash"},
		},
	}
	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !stmt.Flat {
		t.Fatalf("expected Flat statement when no presentation linkbase is present")
	}
	if len(stmt.Items) != 2 {
		t.Fatalf("expected 2 flat items, got %d", len(stmt.Items))
	}
	// concept-sorted: Assets before Cash.
	if stmt.Items[0].Concept != "tifrs-ci:Assets" || stmt.Items[1].Concept != "tifrs-ci:Cash" {
		t.Fatalf("flat items not concept-sorted: %+v", stmt.Items)
	}
}

func TestBuildPresentationTreeBindsValuesAndWeights(t *testing.T) {
	key := balanceSheetKey()
	contextID := "Instant2024Q3"
	in := Input{
		Contexts: map[string]instance.Context{
			contextID: {
				ID:               contextID,
				EntityIdentifier: "2330",
				Period:           instance.Period{IsInstant: true, Instant: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
			},
		},
		Facts: []instance.Fact{
			{Concept: "Assets", ContextRef: contextID, Numeric: decPtr(t, "1000")},
			{Concept: "CurrentAssets", ContextRef: contextID, Numeric: decPtr(t, "600")},
			{Concept: "NonCurrentAssets", ContextRef: contextID, Numeric: decPtr(t, "400")},
		},
		Calculation: linkbase.ArcSet{
			"Assets": {
				{From: "Assets", To: "CurrentAssets", Weight: 1, Order: 1},
				{From: "Assets", To: "NonCurrentAssets", Weight: 1, Order: 2},
			},
		},
		Presentation: linkbase.ArcSet{
			"StatementOfFinancialPosition": {
				{From: "StatementOfFinancialPosition", To: "Assets", Weight: 1, Order: 1},
			},
			"Assets": {
				{From: "Assets", To: "CurrentAssets", Weight: 1, Order: 1},
				{From: "Assets", To: "NonCurrentAssets", Weight: 1, Order: 2},
			},
		},
		Labels:                  &linkbase.LabelSet{Zh: map[string]string{"Assets": "資產"}, En: map[string]string{}},
		HasPresentationLinkbase: true,
	}

	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stmt.Empty || stmt.Flat {
		t.Fatalf("expected a bound presentation tree, got Empty=%v Flat=%v", stmt.Empty, stmt.Flat)
	}
	if len(stmt.Items) != 1 || stmt.Items[0].Concept != "Assets" {
		t.Fatalf("expected a single root item Assets, got %+v", stmt.Items)
	}
	root := stmt.Items[0]
	if root.LabelZh != "資產" {
		t.Fatalf("expected label lookup to resolve, got %q", root.LabelZh)
	}
	if root.Value == nil || !root.Value.Equal(dec(t, "1000")) {
		t.Fatalf("Assets value = %v, want 1000", root.Value)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children under Assets, got %d", len(root.Children))
	}
	if root.Children[0].Concept != "CurrentAssets" || root.Children[1].Concept != "NonCurrentAssets" {
		t.Fatalf("children not in presentation order: %+v", root.Children)
	}
	// Assets has no parent in the calculation arc set, so it falls back to
	// a default weight of 1.
	if !root.Weight.Equal(dec(t, "1")) {
		t.Fatalf("root weight = %v, want default 1", root.Weight)
	}
	// Concept without a label entry falls back to its own name.
	if root.Children[0].LabelEn != "CurrentAssets" {
		t.Fatalf("expected label fallback to concept name, got %q", root.Children[0].LabelEn)
	}
}

func TestBuildDerivesCurrencyAndUnitScaleFromBoundFacts(t *testing.T) {
	key := balanceSheetKey()
	contextID := "Instant2024Q3"
	in := Input{
		Contexts: map[string]instance.Context{
			contextID: {
				ID:               contextID,
				EntityIdentifier: "2330",
				Period:           instance.Period{IsInstant: true, Instant: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
			},
		},
		Facts: []instance.Fact{
			{Concept: "Assets", ContextRef: contextID, UnitRef: "iso4217:TWD", Scale: 3, Numeric: decPtr(t, "1000000")},
		},
		Presentation: linkbase.ArcSet{
			"StatementOfFinancialPosition": {
				{From: "StatementOfFinancialPosition", To: "Assets", Weight: 1, Order: 1},
			},
		},
		HasPresentationLinkbase: true,
	}

	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stmt.Currency != "TWD" {
		t.Fatalf("Currency = %q, want TWD (local-name of iso4217:TWD)", stmt.Currency)
	}
	if stmt.UnitScale != 1000 {
		t.Fatalf("UnitScale = %d, want 1000 (10^3)", stmt.UnitScale)
	}
}

func TestBuildPresentationTreeDropsCycles(t *testing.T) {
	key := balanceSheetKey()
	contextID := "Instant2024Q3"
	in := Input{
		Contexts: map[string]instance.Context{
			contextID: {
				ID:               contextID,
				Period:           instance.Period{IsInstant: true, Instant: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
			},
		},
		Presentation: linkbase.ArcSet{
			"StatementOfFinancialPosition": {
				{From: "StatementOfFinancialPosition", To: "A", Weight: 1, Order: 1},
			},
			"A": {
				{From: "A", To: "B", Weight: 1, Order: 1},
			},
			"B": {
				{From: "B", To: "A", Weight: 1, Order: 1}, // cycle back to A
			},
		},
		HasPresentationLinkbase: true,
	}

	stmt, err := Build(in, key)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := make(map[string]int)
	stmt.Walk(func(item *model.StatementItem) {
		seen[item.Concept]++
	})
	for concept, count := range seen {
		if count != 1 {
			t.Fatalf("concept %s appeared %d times, want exactly once (P1: duplicate-free tree)", concept, count)
		}
	}
	if seen["A"] != 1 || seen["B"] != 1 {
		t.Fatalf("expected both A and B to appear once each, got %+v", seen)
	}
}

func TestSelectContextPrefersEntityMatchThenEmptyScenario(t *testing.T) {
	key := model.StockPeriodKey{StockID: "2330", Year: 113, Quarter: 3, ReportType: model.ReportTypeIncomeStatement}
	endDate := periodEndDate(key)
	yearStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	contexts := map[string]instance.Context{
		"wrong-entity": {
			ID:               "wrong-entity",
			EntityIdentifier: "9999",
			Period:           instance.Period{StartDate: yearStart, EndDate: endDate},
		},
		"right-entity-with-scenario": {
			ID:               "right-entity-with-scenario",
			EntityIdentifier: "2330",
			Period:           instance.Period{StartDate: yearStart, EndDate: endDate},
			HasScenario:      true,
		},
		"right-entity-no-scenario": {
			ID:               "right-entity-no-scenario",
			EntityIdentifier: "2330",
			Period:           instance.Period{StartDate: yearStart, EndDate: endDate},
			HasScenario:      false,
		},
	}

	got, found := selectContext(contexts, key, endDate)
	if !found {
		t.Fatalf("expected a context to be selected")
	}
	if got != "right-entity-no-scenario" {
		t.Fatalf("selectContext = %q, want the entity-matched, scenario-free context", got)
	}
}

func TestVerifyCalculationConsistencyDetectsViolation(t *testing.T) {
	stmt := &model.FinancialStatement{
		Items: []*model.StatementItem{
			{
				Concept: "Assets",
				Value:   decPtr(t, "1000"),
				Children: []*model.StatementItem{
					{Concept: "CurrentAssets", Value: decPtr(t, "600")},
					{Concept: "NonCurrentAssets", Value: decPtr(t, "300")}, // 600+300=900 != 1000
				},
			},
		},
	}
	calc := linkbase.ArcSet{
		"Assets": {
			{From: "Assets", To: "CurrentAssets", Weight: 1},
			{From: "Assets", To: "NonCurrentAssets", Weight: 1},
		},
	}
	violations := VerifyCalculationConsistency(stmt, calc)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
}

func TestVerifyCalculationConsistencyWithinTolerancePasses(t *testing.T) {
	stmt := &model.FinancialStatement{
		Items: []*model.StatementItem{
			{
				Concept: "Assets",
				Value:   decPtr(t, "1000"),
				Children: []*model.StatementItem{
					{Concept: "CurrentAssets", Value: decPtr(t, "600")},
					{Concept: "NonCurrentAssets", Value: decPtr(t, "400")},
				},
			},
		},
	}
	calc := linkbase.ArcSet{
		"Assets": {
			{From: "Assets", To: "CurrentAssets", Weight: 1},
			{From: "Assets", To: "NonCurrentAssets", Weight: 1},
		},
	}
	violations := VerifyCalculationConsistency(stmt, calc)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestVerifyCalculationConsistencySkipsIncompleteChildren(t *testing.T) {
	stmt := &model.FinancialStatement{
		Items: []*model.StatementItem{
			{
				Concept: "Assets",
				Value:   decPtr(t, "1000"),
				Children: []*model.StatementItem{
					{Concept: "CurrentAssets", Value: decPtr(t, "600")},
					{Concept: "NonCurrentAssets", Value: nil},
				},
			},
		},
	}
	calc := linkbase.ArcSet{
		"Assets": {
			{From: "Assets", To: "CurrentAssets", Weight: 1},
			{From: "Assets", To: "NonCurrentAssets", Weight: 1},
		},
	}
	violations := VerifyCalculationConsistency(stmt, calc)
	if len(violations) != 0 {
		t.Fatalf("expected incomplete children to be skipped, got %v", violations)
	}
}
