package crawler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"data-collection-system/internal/fetch"
	"data-collection-system/internal/model"
	"data-collection-system/pkg/errors"
)

// RevenueQuery identifies one monthly-revenue page (§4.8 "Revenue scraper").
type RevenueQuery struct {
	Market string // "sii" or "otc"
	Year   int    // ROC year
	Month  int
	Type   string // issuer type code MOPS embeds in the URL, e.g. "0"
}

// RevenueScraper implements fetch/parse for the revenue endpoint. Its
// page is static HTML served Big5-encoded.
type RevenueScraper struct {
	baseURL string
	fetcher *fetch.Fetcher
	opts    Options
}

func NewRevenueScraper(baseURL string, fetcher *fetch.Fetcher, opts Options) *RevenueScraper {
	return &RevenueScraper{baseURL: baseURL, fetcher: fetcher, opts: opts}
}

func (s *RevenueScraper) Fetch(ctx context.Context, q RevenueQuery) ([]model.RevenueRow, error) {
	url := fmt.Sprintf("%s/nas/t21/%s/t21sc03_%d_%d_%s.html", s.baseURL, q.Market, q.Year, q.Month, q.Type)
	res, err := s.fetcher.Get(ctx, url, "GET", nil, nil, fetch.EncodingBig5)
	if err != nil {
		return nil, err
	}
	return s.Parse([]byte(res.Text), q)
}

// Parse implements the §4.8 parse(html_bytes, encoding) contract: a pure
// function of already-decoded HTML text plus the query context.
func (s *RevenueScraper) Parse(htmlText []byte, q RevenueQuery) ([]model.RevenueRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlText))
	if err != nil {
		return nil, errors.ParseErr(err, "revenue page is not valid HTML")
	}

	budget := &rowBudget{threshold: s.opts.withDefaults().SkipThreshold}
	var rows []model.RevenueRow

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() < 10 {
			return // header/footer row, not a data row
		}
		budget.seen()

		stockID, ok1 := cellText(tr, 0)
		companyName, _ := cellText(tr, 1)
		revenue, ok2 := requiredDecimal(tr, 2)
		if !ok1 || !ok2 || stockID == "" {
			budget.skip("revenue row missing stock_id or revenue column")
			return
		}

		lastMonth, _ := requiredDecimal(tr, 3)
		lastYear, _ := requiredDecimal(tr, 4)
		momChange, _ := requiredDecimal(tr, 5)
		yoyChange, _ := requiredDecimal(tr, 6)
		accRevenue, _ := requiredDecimal(tr, 7)
		accLastYear, _ := requiredDecimal(tr, 8)
		accYoyChange, _ := requiredDecimal(tr, 9)
		comment, _ := cellText(tr, 10)

		rows = append(rows, model.RevenueRow{
			StockID:              stockID,
			CompanyName:          companyName,
			Year:                 q.Year,
			Month:                q.Month,
			Market:               q.Market,
			Revenue:              revenue,
			RevenueLastMonth:     lastMonth,
			RevenueLastYear:      lastYear,
			MomChange:            momChange,
			YoyChange:            yoyChange,
			AccumulatedRevenue:   accRevenue,
			AccumulatedLastYear:  accLastYear,
			AccumulatedYoyChange: accYoyChange,
			Comment:              comment,
			FetchedAt:            time.Now(),
		})
	})

	if err := budget.check(); err != nil {
		return nil, err
	}
	return rows, nil
}
