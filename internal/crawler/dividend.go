package crawler

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"data-collection-system/internal/model"
	"data-collection-system/pkg/errors"
)

// DividendQuery identifies one dividend AJAX query (§4.8 "Dividend scraper").
type DividendQuery struct {
	YearStart int
	YearEnd   int
	QueryType int // 1 or 2
	CoID      string
}

// DividendScraper hits MOPS's ajax_t05st09_2 endpoint.
type DividendScraper struct {
	baseURL string
	opts    Options
}

func NewDividendScraper(baseURL string, opts Options) *DividendScraper {
	return &DividendScraper{baseURL: baseURL, opts: opts}
}

func (s *DividendScraper) Fetch(ctx context.Context, q DividendQuery) ([]model.DividendRow, error) {
	params := url.Values{
		"year_start": {itoaQ(q.YearStart)},
		"year_end":   {itoaQ(q.YearEnd)},
		"step":       {itoaQ(q.QueryType)},
	}
	if q.CoID != "" {
		params.Set("co_id", q.CoID)
	}

	c := newCollector(s.opts)
	var body []byte
	var visitErr error
	c.OnResponse(func(r *colly.Response) { body = r.Body })
	c.OnError(func(r *colly.Response, err error) { visitErr = err })

	if err := c.Post(s.baseURL+"/mops/web/ajax_t05st09_2", toCollyParams(params)); err != nil {
		return nil, errors.TransientFetchError(err, "ajax_t05st09_2")
	}
	c.Wait()
	if visitErr != nil {
		return nil, errors.TransientFetchError(visitErr, "ajax_t05st09_2")
	}

	return s.Parse(body, q)
}

// Parse implements §4.8 parse(html_bytes, encoding) for the dividend
// endpoint. Column 1 (quarter) is the null token "全年" (annual) when no
// quarterly resolution applies; that yields a nil Quarter per §4.9.
func (s *DividendScraper) Parse(htmlBytes []byte, q DividendQuery) ([]model.DividendRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytesReader(htmlBytes))
	if err != nil {
		return nil, errors.ParseErr(err, "dividend fragment is not valid HTML")
	}

	budget := &rowBudget{threshold: s.opts.withDefaults().SkipThreshold}
	var rows []model.DividendRow

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() < 5 {
			return
		}
		budget.seen()

		yearText, ok1 := cellText(tr, 0)
		quarterText, _ := cellText(tr, 1)
		cash, ok2 := requiredDecimal(tr, 2)
		stock, ok3 := requiredDecimal(tr, 3)
		resolutionText, _ := cellText(tr, 4)

		year, yearErr := strconv.Atoi(yearText)
		if !ok1 || !ok2 || !ok3 || yearErr != nil {
			budget.skip("dividend row missing required column")
			return
		}

		var quarter *int
		if qn, err := strconv.Atoi(quarterText); err == nil {
			quarter = &qn
		}

		var resolutionDate *time.Time
		if t := parseMOPSDate(resolutionText); !t.IsZero() {
			resolutionDate = &t
		}

		rows = append(rows, model.DividendRow{
			StockID:             q.CoID,
			Year:                year,
			Quarter:             quarter,
			CashDividend:        cash,
			StockDividend:       stock,
			BoardResolutionDate: resolutionDate,
			FetchedAt:           time.Now(),
		})
	})

	if err := budget.check(); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseMOPSDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
