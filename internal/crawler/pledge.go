package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"data-collection-system/internal/model"
	"data-collection-system/pkg/errors"
)

// PledgeQuery identifies one share-pledge AJAX query (§4.8 "Pledge scraper").
type PledgeQuery struct {
	Year  int
	Month int
	TypeK string // "sii" or "otc"
	CoID  string // optional: restrict to one stock_id
}

// PledgeScraper hits MOPS's ajax_stapap1 endpoint, which renders its
// result as an HTML fragment table — parsed the same tolerant way as the
// static revenue page.
type PledgeScraper struct {
	baseURL string
	opts    Options
}

func NewPledgeScraper(baseURL string, opts Options) *PledgeScraper {
	return &PledgeScraper{baseURL: baseURL, opts: opts}
}

func (s *PledgeScraper) Fetch(ctx context.Context, q PledgeQuery) ([]model.PledgeRow, error) {
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

	if err := c.Post(s.baseURL+"/mops/web/ajax_stapap1", toCollyParams(params)); err != nil {
		return nil, errors.TransientFetchError(err, "ajax_stapap1")
	}
	c.Wait()
	if visitErr != nil {
		return nil, errors.TransientFetchError(visitErr, "ajax_stapap1")
	}

	return s.Parse(body, q)
}

// Parse implements §4.8 parse(html_bytes, encoding) for the pledge endpoint.
func (s *PledgeScraper) Parse(htmlBytes []byte, q PledgeQuery) ([]model.PledgeRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytesReader(htmlBytes))
	if err != nil {
		return nil, errors.ParseErr(err, "pledge fragment is not valid HTML")
	}

	budget := &rowBudget{threshold: s.opts.withDefaults().SkipThreshold}
	var rows []model.PledgeRow

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() < 7 {
			return
		}
		budget.seen()

		stockID, ok1 := cellText(tr, 0)
		companyName, _ := cellText(tr, 1)
		title, _ := cellText(tr, 2)
		name, _ := cellText(tr, 3)
		current, ok2 := requiredDecimal(tr, 4)
		pledged, ok3 := requiredDecimal(tr, 5)
		ratio, ok4 := requiredDecimal(tr, 6)

		if !ok1 || !ok2 || !ok3 || !ok4 || stockID == "" {
			budget.skip("pledge row missing a required column")
			return
		}

		rows = append(rows, model.PledgeRow{
			StockID:       stockID,
			CompanyName:   companyName,
			Year:          q.Year,
			Month:         q.Month,
			Title:         title,
			Name:          name,
			CurrentShares: current,
			PledgedShares: pledged,
			PledgeRatio:   ratio,
			FetchedAt:     time.Now(),
		})
	})

	if err := budget.check(); err != nil {
		return nil, err
	}
	return rows, nil
}
