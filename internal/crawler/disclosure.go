package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"data-collection-system/internal/model"
	"data-collection-system/internal/numeric"
	"data-collection-system/pkg/errors"
)

// DisclosureQuery identifies one disclosure AJAX query (§4.8 "Disclosure scraper").
type DisclosureQuery struct {
	Year  int
	Month int
	TypeK string
	CoID  string
}

// DisclosureScraper hits MOPS's ajax_t05st11 endpoint, which renders two
// distinct row-sets (funds lending, endorsement/guarantee) plus a scalar
// cross-company rollup in the same fragment.
type DisclosureScraper struct {
	baseURL string
	opts    Options
}

func NewDisclosureScraper(baseURL string, opts Options) *DisclosureScraper {
	return &DisclosureScraper{baseURL: baseURL, opts: opts}
}

func (s *DisclosureScraper) Fetch(ctx context.Context, q DisclosureQuery) (*model.DisclosureResult, error) {
	params := url.Values{
		"year":  {itoaQ(q.Year)},
		"month": {itoaQ(q.Month)},
		"TYPEK": {q.TypeK},
	}
	if q.CoID != "" {
		params.Set("co_id", q.CoID)
	}

	c := newCollector(s.opts)
	var body []byte
	var visitErr error
	c.OnResponse(func(r *colly.Response) { body = r.Body })
	c.OnError(func(r *colly.Response, err error) { visitErr = err })

	if err := c.Post(s.baseURL+"/mops/web/ajax_t05st11", toCollyParams(params)); err != nil {
		return nil, errors.TransientFetchError(err, "ajax_t05st11")
	}
	c.Wait()
	if visitErr != nil {
		return nil, errors.TransientFetchError(visitErr, "ajax_t05st11")
	}

	return s.Parse(body, q)
}

// Parse implements §4.8 parse(html_bytes, encoding) for the disclosure
// endpoint. Row-sets are distinguished by table id/class (funds-lending
// table vs endorsement table) within the same fragment; the scalar
// cross-company rollup is read from a labeled summary cell.
func (s *DisclosureScraper) Parse(htmlBytes []byte, q DisclosureQuery) (*model.DisclosureResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytesReader(htmlBytes))
	if err != nil {
		return nil, errors.ParseErr(err, "disclosure fragment is not valid HTML")
	}

	budget := &rowBudget{threshold: s.opts.withDefaults().SkipThreshold}
	result := &model.DisclosureResult{}

	parseRows := func(sel *goquery.Selection) []model.FundsLendingRow {
		var rows []model.FundsLendingRow
		sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.Find("td").Length() < 5 {
				return
			}
			budget.seen()
			entityText, ok1 := cellText(tr, 0)
			current, ok2 := requiredDecimal(tr, 1)
			previous, ok3 := requiredDecimal(tr, 2)
			maxLimit, ok4 := requiredDecimal(tr, 3)
			accumulated, ok5 := requiredDecimal(tr, 4)

			if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
				budget.skip("disclosure row missing a required column")
				return
			}
			entity := model.DisclosureEntitySelf
			if entityText == string(model.DisclosureEntitySubsidiary) {
				entity = model.DisclosureEntitySubsidiary
			}
			rows = append(rows, model.FundsLendingRow{
				StockID:            q.CoID,
				Year:               q.Year,
				Month:              q.Month,
				Entity:             entity,
				HasBalance:         current != nil && !current.IsZero(),
				CurrentMonth:       current,
				PreviousMonth:      previous,
				MaxLimit:           maxLimit,
				AccumulatedBalance: accumulated,
				FetchedAt:          time.Now(),
			})
		})
		return rows
	}

	fundsLendingRows := parseRows(doc.Find("table#funds-lending, table.funds-lending"))
	endorsementShared := parseRows(doc.Find("table#endorsement-guarantee, table.endorsement-guarantee"))

	result.FundsLending = fundsLendingRows
	for _, r := range endorsementShared {
		result.EndorsementGuarantee = append(result.EndorsementGuarantee, model.EndorsementRow(r))
	}

	if rollupText := doc.Find(".cross-company-rollup, #cross-company-rollup").First().Text(); rollupText != "" {
		result.CrossCompanyRollup = numeric.ParseString(rollupText)
	}

	if err := budget.check(); err != nil {
		return nil, err
	}
	return result, nil
}
