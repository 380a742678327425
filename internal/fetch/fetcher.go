// Package fetch implements the single HTTP entry point (C2) every other
// pipeline component routes upstream MOPS requests through: per-host
// serialization, encoding-aware body decode, and the fetch-level error
// classification consumed by C10's retry policy.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/logger"
)

// Encoding hints accepted as the encoding_hint parameter of Get (§4.2).
type Encoding string

const (
	EncodingUTF8 Encoding = "utf-8"
	EncodingBig5 Encoding = "big5"
)

// replacementThreshold is the §4.2 / §8 P8 fallback trigger: decode is
// retried in the other encoding when the U+FFFD ratio is at or above 1%.
const replacementThreshold = 0.01

// Result is the decoded outcome of one fetch.
type Result struct {
	Body         []byte
	Text         string
	StatusCode   int
	RequestID    string
	UsedEncoding Encoding
}

// Fetcher serializes requests per host at a configurable minimum gap and
// classifies failures per §7, grounded on the teacher's token-bucket
// rate.Limiter client (repo/external/tushare/client.go) generalized from
// one fixed API host to an arbitrary-host keyed map.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	referer    string
	minGap     time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Fetcher. minGap is the per-host minimum inter-request
// spacing (default 1s per §4.2); timeout is the per-request deadline
// (default 30s).
func New(userAgent, referer string, minGap, timeout time.Duration) *Fetcher {
	if minGap <= 0 {
		minGap = time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		referer:    referer,
		minGap:     minGap,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		// One token every minGap, burst 1: forces callers targeting the
		// same host to queue and wait cooperatively instead of racing.
		l = rate.NewLimiter(rate.Every(f.minGap), 1)
		f.limiters[host] = l
	}
	return l
}

// Get performs the fetch described by §4.2. method is "GET" or "POST";
// for POST, params is sent as an application/x-www-form-urlencoded body.
func (f *Fetcher) Get(ctx context.Context, rawURL, method string, params url.Values, headers map[string]string, hint Encoding) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.ClientError(0, fmt.Sprintf("invalid URL %q: %v", rawURL, err))
	}

	limiter := f.limiterFor(parsed.Host)
	if err := limiter.Wait(ctx); err != nil {
		return nil, errors.CancelledErr(err)
	}

	requestID := uuid.New().String()

	var bodyReader io.Reader
	reqURL := rawURL
	if method == http.MethodPost {
		bodyReader = bytes.NewBufferString(params.Encode())
	} else if len(params) > 0 {
		parsed.RawQuery = params.Encode()
		reqURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, errors.ClientError(0, fmt.Sprintf("build request: %v", err))
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log := logger.WithField("request_id", requestID)
	log.Debugf("fetching %s %s", method, reqURL)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.TransientFetchError(err, reqURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.TransientFetchError(err, reqURL)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFoundError(reqURL)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, errors.ClientError(resp.StatusCode, reqURL)
	case resp.StatusCode >= 500:
		return nil, errors.TransientFetchError(fmt.Errorf("status %d", resp.StatusCode), reqURL)
	}

	text, used := decodeWithFallback(body, hint)

	return &Result{
		Body:         body,
		Text:         text,
		StatusCode:   resp.StatusCode,
		RequestID:    requestID,
		UsedEncoding: used,
	}, nil
}

// decodeWithFallback implements the §4.2 / P8 encoding fallback: decode
// using hint, and if the replacement-character ratio is at or above 1%,
// retry with the other encoding and keep whichever is cleaner.
func decodeWithFallback(body []byte, hint Encoding) (string, Encoding) {
	if hint == "" {
		hint = EncodingUTF8
	}
	primary := decode(body, hint)
	if replacementRatio(primary) < replacementThreshold {
		return primary, hint
	}
	other := EncodingUTF8
	if hint == EncodingUTF8 {
		other = EncodingBig5
	}
	secondary := decode(body, other)
	if replacementRatio(secondary) < replacementRatio(primary) {
		return secondary, other
	}
	return primary, hint
}

func decode(body []byte, enc Encoding) string {
	if enc == EncodingBig5 {
		out, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
		if err != nil {
			return string(body)
		}
		return string(out)
	}
	return string(body)
}

func replacementRatio(s string) float64 {
	if s == "" {
		return 0
	}
	var bad, total int
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}
