package service

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"data-collection-system/internal/model"
	"data-collection-system/internal/repository"
	"data-collection-system/pkg/config"
	"data-collection-system/pkg/logger"
)

// buildFlatFallbackXBRLZip builds a minimal ZIP matching what a MOPS
// t164sb01 response carries: one iXBRL instance document (named so
// archive.Unpack's instance-naming convention recognizes it) with a
// single "Assets" fact plus one .xsd declaring that same concept, so
// statement.Build takes the §4.7 flat-fallback path and needs no
// calculation/presentation/label linkbase files.
func buildFlatFallbackXBRLZip(t *testing.T, value string) []byte {
	t.Helper()

	instanceHTML := `<html><body>
<ix:nonFraction name="Assets" contextRef="I2024Q3" unitRef="TWD" scale="0" sign="">` + value + `</ix:nonFraction>
<xbrli:context id="I2024Q3">
  <xbrli:entity><xbrli:identifier>2330</xbrli:identifier></xbrli:entity>
  <xbrli:period><xbrli:instant>2024-09-30</xbrli:instant></xbrli:period>
</xbrli:context>
</body></html>`

	schemaXSD := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
<xs:element name="Assets"/>
</xs:schema>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	writeEntry := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create(%s) failed: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write(%s) failed: %v", name, err)
		}
	}
	writeEntry("tifrs-fr1001-ci-2024q3.html", instanceHTML)
	writeEntry("tifrs-ci-2024.xsd", schemaXSD)
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close failed: %v", err)
	}
	return buf.Bytes()
}

func testKey() model.StockPeriodKey {
	return model.StockPeriodKey{
		StockID:    "2330",
		Year:       113,
		Quarter:    3,
		ReportType: model.ReportTypeBalanceSheet,
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	logger.Init(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	repo := repository.NewFake()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		MOPS: config.MOPSConfig{
			BaseURL:       srv.URL,
			UserAgent:     "test-agent",
			Referer:       srv.URL,
			MinRequestGap: time.Millisecond,
			Timeout:       5 * time.Second,
		},
		Taxonomy: config.TaxonomyConfig{CacheDir: t.TempDir()},
		Crawler: config.CrawlerConfig{
			UserAgent:        "test-crawler",
			Delay:            time.Millisecond,
			Parallelism:      1,
			RowSkipThreshold: 0.25,
		},
	}
	return New(cfg, repo, nil)
}

func TestGetFinancialStatementBuildsFlatFallbackFromUpstream(t *testing.T) {
	zipBytes := buildFlatFallbackXBRLZip(t, "1000000")
	var hits int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(zipBytes)
	})

	stmt, err := s.GetFinancialStatement(context.Background(), testKey(), false)
	if err != nil {
		t.Fatalf("GetFinancialStatement failed: %v", err)
	}
	if stmt.Empty {
		t.Fatalf("expected a non-empty statement, got Empty=true")
	}
	if !stmt.Flat {
		t.Fatalf("expected the flat-fallback path (no presentation linkbase in the fixture)")
	}
	if len(stmt.Items) != 1 || stmt.Items[0].Concept != "Assets" {
		t.Fatalf("unexpected items: %+v", stmt.Items)
	}
	if stmt.Items[0].Value == nil || stmt.Items[0].Value.String() != "1000000" {
		t.Fatalf("Assets value = %v, want 1000000", stmt.Items[0].Value)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly 1 upstream hit, got %d", hits)
	}

	// The second call (same key, no force_refresh) must be served from C9
	// without hitting the upstream again.
	if _, err := s.GetFinancialStatement(context.Background(), testKey(), false); err != nil {
		t.Fatalf("second GetFinancialStatement failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected the repository read-through to avoid a second upstream hit, got %d hits", hits)
	}
}

// TestGetFinancialStatementSingleFlightsConcurrentCalls exercises P4:
// N concurrent requests for the same key must coalesce into exactly one
// upstream download.
func TestGetFinancialStatementSingleFlightsConcurrentCalls(t *testing.T) {
	zipBytes := buildFlatFallbackXBRLZip(t, "42")
	var hits int32
	release := make(chan struct{})
	var once sync.Once
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		once.Do(func() { close(release) })
		<-release
		w.Write(zipBytes)
	})

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.GetFinancialStatement(context.Background(), testKey(), false)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected singleflight to coalesce into exactly 1 upstream hit, got %d", hits)
	}
}

// TestGetFinancialStatementForceRefreshBypassesReadThrough exercises P5:
// force_refresh must skip the mirror/repository read-through and hit
// upstream again even though a prior call already persisted a result.
func TestGetFinancialStatementForceRefreshBypassesReadThrough(t *testing.T) {
	var hits int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		value := "1000000"
		if n > 1 {
			value = "2000000"
		}
		w.Write(buildFlatFallbackXBRLZip(t, value))
	})

	first, err := s.GetFinancialStatement(context.Background(), testKey(), false)
	if err != nil {
		t.Fatalf("first GetFinancialStatement failed: %v", err)
	}
	if first.Items[0].Value.String() != "1000000" {
		t.Fatalf("unexpected first value: %v", first.Items[0].Value)
	}

	second, err := s.GetFinancialStatement(context.Background(), testKey(), true)
	if err != nil {
		t.Fatalf("force_refresh GetFinancialStatement failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected force_refresh to trigger a second upstream hit, got %d", hits)
	}
	if second.Items[0].Value.String() != "2000000" {
		t.Fatalf("expected force_refresh to return the freshly fetched value, got %v", second.Items[0].Value)
	}
}
