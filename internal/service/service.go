// Package service implements the cache-aware service façade (C10): the
// composition root's single entry point, exposing one typed method per
// report_type and per crawl endpoint (§4.10, §6). Every method follows
// the same read-through algorithm: consult C9 unless force_refresh,
// otherwise invoke the upstream path, parse, persist best-effort, and
// return — with per-key requests coalesced through a singleflight.Group
// exactly like C6's taxonomy resolver, generalized here from "one
// remote URL" to "one (stock_id, year, quarter, report_type)" or
// crawl-query identity tuple.
package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"data-collection-system/internal/cache"
	"data-collection-system/internal/crawler"
	"data-collection-system/internal/fetch"
	"data-collection-system/internal/model"
	"data-collection-system/internal/repository"
	"data-collection-system/internal/xbrl/archive"
	"data-collection-system/internal/xbrl/instance"
	"data-collection-system/internal/xbrl/linkbase"
	"data-collection-system/internal/xbrl/statement"
	"data-collection-system/internal/xbrl/taxonomy"
	"data-collection-system/pkg/config"
	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/logger"
)

// Service is the composition root's façade. All of its dependencies are
// passed in explicitly by main (design note 9: no global singletons).
type Service struct {
	cfg        *config.Config
	fetcher    *fetch.Fetcher
	taxonomy   *taxonomy.Resolver
	repo       repository.Store
	mirror     *cache.Mirror
	revenue    *crawler.RevenueScraper
	pledge     *crawler.PledgeScraper
	dividend   *crawler.DividendScraper
	disclosure *crawler.DisclosureScraper

	statements singleflight.Group
	crawls     singleflight.Group
}

// New wires every component the façade orchestrates. baseURL/opts come
// straight from cfg; callers in main just pass cfg through.
func New(cfg *config.Config, repo repository.Store, mirror *cache.Mirror) *Service {
	fetcher := fetch.New(cfg.MOPS.UserAgent, cfg.MOPS.Referer, cfg.MOPS.MinRequestGap, cfg.MOPS.Timeout)
	opts := crawler.Options{
		UserAgent:     cfg.Crawler.UserAgent,
		Delay:         cfg.Crawler.Delay,
		Parallelism:   cfg.Crawler.Parallelism,
		Timeout:       cfg.MOPS.Timeout,
		SkipThreshold: cfg.Crawler.RowSkipThreshold,
	}
	return &Service{
		cfg:        cfg,
		fetcher:    fetcher,
		taxonomy:   taxonomy.New(cfg.Taxonomy.CacheDir, fetcher),
		repo:       repo,
		mirror:     mirror,
		revenue:    crawler.NewRevenueScraper(cfg.MOPS.BaseURL, fetcher, opts),
		pledge:     crawler.NewPledgeScraper(cfg.MOPS.BaseURL, opts),
		dividend:   crawler.NewDividendScraper(cfg.MOPS.BaseURL, opts),
		disclosure: crawler.NewDisclosureScraper(cfg.MOPS.BaseURL, opts),
	}
}

// withRetry implements the §7 TransientFetchError retry policy: up to
// 2 extra attempts with 1s/4s backoff before bubbling the error.
func withRetry(ctx context.Context, fn func() error) error {
	backoffs := []time.Duration{time.Second, 4 * time.Second}
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.IsRetryable(err) || attempt >= len(backoffs) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.CancelledErr(ctx.Err())
		case <-time.After(backoffs[attempt]):
		}
	}
}

// GetFinancialStatement implements get_financial_statement (§6). It is
// the XBRL path: C9 lookup, else C2 download → C3 unpack → C4/C5 parse
// → C6 best-effort taxonomy resolution → C7 build → C9 persist.
func (s *Service) GetFinancialStatement(ctx context.Context, key model.StockPeriodKey, forceRefresh bool) (*model.FinancialStatement, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	mirrorKey := "statement:" + key.String()
	if !forceRefresh {
		if payload, ok := s.mirror.Get(ctx, mirrorKey); ok {
			if stmt, err := unmarshalStatement(payload); err == nil {
				return stmt, nil
			}
		}
		if cached, err := s.repo.GetReport(ctx, key); err == nil && cached != nil {
			s.mirror.Set(ctx, mirrorKey, marshalStatement(cached))
			return cached, nil
		}
	}

	v, err, _ := s.statements.Do(key.String(), func() (interface{}, error) {
		var stmt *model.FinancialStatement
		fetchErr := withRetry(ctx, func() error {
			built, err := s.buildStatement(ctx, key)
			if err != nil {
				return err
			}
			stmt = built
			return nil
		})
		if fetchErr != nil {
			return nil, fetchErr
		}

		if err := s.repo.SaveReport(ctx, stmt); err != nil {
			// §4.10 step 4: a persistence failure must not prevent
			// returning the freshly parsed result.
			logger.WithField("key", key.String()).Warnf("save_report failed, returning unpersisted result: %v", err)
		} else {
			s.mirror.Set(ctx, mirrorKey, marshalStatement(stmt))
		}
		return stmt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.FinancialStatement), nil
}

func (s *Service) buildStatement(ctx context.Context, key model.StockPeriodKey) (*model.FinancialStatement, error) {
	zipBytes, err := s.downloadXBRLZip(ctx, key.StockID, key.Year, key.Quarter)
	if err != nil {
		return nil, err
	}

	pkg, err := archive.Unpack(zipBytes)
	if err != nil {
		return nil, err
	}

	doc, err := instance.Extract(pkg.Files[pkg.InstancePath])
	if err != nil {
		return nil, err
	}

	in := statement.Input{
		Facts:                   doc.Facts,
		Contexts:                doc.Contexts,
		HasPresentationLinkbase: pkg.PresentationPath != "",
	}

	if pkg.CalculationPath != "" {
		calc, err := linkbase.ParseCalculation(pkg.Files[pkg.CalculationPath])
		if err != nil {
			return nil, err
		}
		in.Calculation = calc
	}
	if pkg.PresentationPath != "" {
		pres, err := linkbase.ParsePresentation(pkg.Files[pkg.PresentationPath])
		if err != nil {
			return nil, err
		}
		in.Presentation = pres
	}
	if pkg.LabelPath != "" {
		labels, err := linkbase.ParseLabels(pkg.Files[pkg.LabelPath])
		if err != nil {
			return nil, err
		}
		in.Labels = labels
	}
	if !in.HasPresentationLinkbase {
		in.RoleNamespaceConcepts = s.resolveFlatFallbackConcepts(ctx, pkg)
	}

	return statement.Build(in, key)
}

// resolveFlatFallbackConcepts backs the §4.7 flat-list fallback: every
// concept any taxonomy schema this package references declares, keyed
// uniformly under every role since MOPS packages carry one schema set
// per filing and do not segment concepts by role when no presentation
// linkbase ships. Schemas are gathered from whatever .xsd the ZIP
// itself carries plus every remote xsi:schemaLocation the instance
// document references, resolved through C6 (§4.6) — resolution failure
// there is already best-effort, so a schema that can't be fetched just
// contributes no concepts instead of aborting the request.
func (s *Service) resolveFlatFallbackConcepts(ctx context.Context, pkg *archive.Package) map[string][]string {
	var concepts []string
	for name, data := range pkg.Files {
		if hasSuffixFold(name, ".xsd") {
			concepts = append(concepts, taxonomy.ExtractConcepts(data)...)
		}
	}

	for _, remoteURL := range taxonomy.ExtractSchemaLocations(pkg.Files[pkg.InstancePath]) {
		data, err := s.taxonomy.Resolve(ctx, remoteURL)
		if err != nil {
			logger.WithField("url", remoteURL).Debug("flat fallback: schema unresolved, continuing without it")
			continue
		}
		concepts = append(concepts, taxonomy.ExtractConcepts(data)...)
	}

	out := make(map[string][]string, 4)
	for _, role := range []string{
		"StatementOfFinancialPosition", "StatementOfComprehensiveIncome",
		"StatementOfCashFlows", "StatementOfChangesInEquity",
	} {
		out[role] = concepts
	}
	return out
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := range tail {
		a, b := tail[i], suffix[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// downloadXBRLZip implements download_xbrl_zip(stock_id, year, quarter)
// → bytes (§6). MOPS encodes the report's fiscal quarter as a "season"
// query parameter on its XBRL file-download endpoint.
func (s *Service) downloadXBRLZip(ctx context.Context, stockID string, year, quarter int) ([]byte, error) {
	params := url.Values{}
	params.Set("co_id", stockID)
	params.Set("year", fmt.Sprintf("%d", year))
	params.Set("season", fmt.Sprintf("%d", quarter))

	res, err := s.fetcher.Get(ctx, s.cfg.MOPS.BaseURL+"/server-java/t164sb01", "GET", params, nil, fetch.EncodingUTF8)
	if err != nil {
		return nil, err
	}
	if int64(len(res.Body)) > s.cfg.MOPS.MaxDocumentSize && s.cfg.MOPS.MaxDocumentSize > 0 {
		return nil, errors.New(errors.ErrCodeDataParsingFailed, "XBRL package exceeds configured size limit")
	}
	return res.Body, nil
}

// DownloadXBRLZip exposes download_xbrl_zip directly to the routing
// layer, bypassing C9 (the ZIP itself is never the persisted artifact —
// only the statement built from it is, per §4.9's schema).
func (s *Service) DownloadXBRLZip(ctx context.Context, stockID string, year, quarter int) ([]byte, error) {
	return s.downloadXBRLZip(ctx, stockID, year, quarter)
}

// marshalStatement/unmarshalStatement serialize the L1 mirror payload.
// A marshal failure degrades to an empty string, which the mirror
// still happily stores and which simply never unmarshals back to a
// hit — the mirror is an accelerator, never the system of record.
func marshalStatement(stmt *model.FinancialStatement) string {
	b, err := json.Marshal(stmt)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalStatement(payload string) (*model.FinancialStatement, error) {
	var stmt model.FinancialStatement
	if err := json.Unmarshal([]byte(payload), &stmt); err != nil {
		return nil, err
	}
	return &stmt, nil
}
