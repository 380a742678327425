// Package crawler implements the HTML table crawler (C8): four
// dedicated scrapers (revenue, pledge, dividend, disclosure), each a
// pure function of HTML bytes plus its query context, grounded on the
// teacher's colly-based news crawler (service/collection/news_crawler.go)
// generalized from "extract one news article" to "extract and
// tolerantly validate a table of rows".
package crawler

import (
	"bytes"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/shopspring/decimal"

	"data-collection-system/internal/numeric"
	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/logger"
)

// DefaultRowSkipThreshold is the §4.8 systemic-drift guard: if the
// fraction of discovered rows that failed to parse exceeds this, the
// scraper fails with a ParsingError instead of silently returning a
// decimated result set.
const DefaultRowSkipThreshold = 0.25

// Options configures the shared colly collector every scraper builds on.
type Options struct {
	UserAgent     string
	Delay         time.Duration
	Parallelism   int
	Timeout       time.Duration
	SkipThreshold float64
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (compatible; MOPSCollector/1.0)"
	}
	if o.Delay <= 0 {
		o.Delay = time.Second
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.SkipThreshold <= 0 {
		o.SkipThreshold = DefaultRowSkipThreshold
	}
	return o
}

// newCollector builds a colly.Collector configured the way the teacher's
// news crawler configures one: rate-limited per domain, random UA +
// referer extensions, request/error logging hooks.
func newCollector(opts Options) *colly.Collector {
	opts = opts.withDefaults()
	c := colly.NewCollector()
	c.SetRequestTimeout(opts.Timeout)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: opts.Parallelism,
		Delay:       opts.Delay,
	})
	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	c.OnRequest(func(r *colly.Request) {
		if opts.UserAgent != "" {
			r.Headers.Set("User-Agent", opts.UserAgent)
		}
		logger.WithField("url", r.URL.String()).Debug("crawler visiting")
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.WithField("url", r.Request.URL.String()).Warnf("crawler request failed: %v", err)
	})
	return c
}

// rowBudget tracks the §4.8 skip-ratio rule across one scrape.
type rowBudget struct {
	discovered int
	skipped    int
	threshold  float64
}

func (b *rowBudget) seen() { b.discovered++ }

func (b *rowBudget) skip(reason string) {
	b.skipped++
	logger.Debug(errors.RowParseWarningError(reason).Error())
}

func (b *rowBudget) check() error {
	if b.discovered == 0 {
		return nil
	}
	if float64(b.skipped)/float64(b.discovered) > b.threshold {
		return errors.New(errors.ErrCodeDataParsingFailed, "row skip ratio exceeds threshold").
			WithDetailsf("skipped %d of %d discovered rows", b.skipped, b.discovered)
	}
	return nil
}

// cellText returns the trimmed text of the i-th <td> in a row, tolerating
// rows with fewer columns than expected (§4.8: "tolerates missing
// columns").
func cellText(s *goquery.Selection, i int) (string, bool) {
	cells := s.Find("td")
	if i >= cells.Length() {
		return "", false
	}
	return strings.TrimSpace(cells.Eq(i).Text()), true
}

// requiredDecimal parses a required numeric column; ok=false means the
// column itself was missing (a structural row defect), distinct from a
// present-but-null value (a legitimate absent data point, §4.1).
func requiredDecimal(s *goquery.Selection, i int) (*decimal.Decimal, bool) {
	text, found := cellText(s, i)
	if !found {
		return nil, false
	}
	return numeric.ParseString(text), true
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

func itoaQ(n int) string { return strconv.Itoa(n) }

// toCollyParams flattens url.Values to the map[string]string colly's
// Post expects, taking each key's first value (every AJAX endpoint here
// is single-valued per field).
func toCollyParams(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
