package errors

import "net/http"

// 管道级错误码 (4000-4999)：XBRL/HTML 抓取管道特有的错误分类，
// 对应 spec §7 的 Error kinds 表。
const (
	ErrCodeMalformedPackage ErrorCode = 4000 + iota
	ErrCodeXBRLParse
	ErrCodeTaxonomyResolution
	ErrCodeRowParseWarning
	ErrCodeCancelled
)

func init() {
	// 把4000段接入与2000/3000段相同的 getHTTPStatus 分发逻辑。
	pipelineHTTPStatus[ErrCodeMalformedPackage] = http.StatusBadGateway
	pipelineHTTPStatus[ErrCodeXBRLParse] = http.StatusBadGateway
	pipelineHTTPStatus[ErrCodeTaxonomyResolution] = http.StatusOK // downgraded to warning, never surfaced
	pipelineHTTPStatus[ErrCodeRowParseWarning] = http.StatusOK    // counted, not surfaced unless threshold exceeded
	pipelineHTTPStatus[ErrCodeCancelled] = 499
}

var pipelineHTTPStatus = map[ErrorCode]int{}

// TransientFetchError is raised by the fetcher on 5xx/network failure
// (§7). It is retryable; C10 may retry up to 2x with backoff before
// bubbling it to the caller, where it becomes HTTP 503.
func TransientFetchError(cause error, detail string) *AppError {
	return Wrap(cause, ErrCodeDataSourceUnavailable, "upstream fetch failed").WithDetails(detail)
}

// NotFoundError is raised by the fetcher on HTTP 404. Non-retryable.
func NotFoundError(detail string) *AppError {
	return New(ErrCodeDataNotFound, "upstream resource not found").WithDetails(detail)
}

// ClientError is raised by the fetcher on a non-404 4xx. Fatal, not retried.
func ClientError(status int, detail string) *AppError {
	return Newf(ErrCodeInvalidParam, "upstream client error: %d", status).WithDetails(detail)
}

// MalformedPackageError is raised by the ZIP unpacker (C3) when no
// instance file can be located. Fatal per request.
func MalformedPackageError(detail string) *AppError {
	return New(ErrCodeMalformedPackage, "XBRL package is malformed").WithDetails(detail)
}

// ParseErr is raised by the linkbase/instance parsers (C4, C5) on
// invalid XML. Fatal per request; partial data is never persisted.
func ParseErr(cause error, detail string) *AppError {
	return Wrap(cause, ErrCodeXBRLParse, "XBRL document parse failed").WithDetails(detail)
}

// TaxonomyResolutionError is raised by the taxonomy resolver (C6) when
// a schema reference cannot be fetched or found locally. Per spec this
// is always downgraded to a warning by the caller; parsing continues
// with a best-effort linkbase set.
func TaxonomyResolutionError(cause error, detail string) *AppError {
	return Wrap(cause, ErrCodeTaxonomyResolution, "taxonomy schema unresolved").WithDetails(detail)
}

// RowParseWarningError represents one row-level parse failure counted
// by the HTML table crawler (C8). It becomes fatal only when the
// aggregate skip ratio exceeds 25% of discovered rows (§4.8).
func RowParseWarningError(detail string) *AppError {
	return New(ErrCodeRowParseWarning, "row failed to parse").WithDetails(detail)
}

// StorageError wraps a persistence failure (C9). Logged, never fatal:
// C10 still returns the freshly parsed result to the caller.
func StorageError(cause error, detail string) *AppError {
	return Wrap(cause, ErrCodeDatabase, "storage operation failed").WithDetails(detail)
}

// CancelledErr wraps context cancellation. Propagated without
// transformation per §7; this constructor exists only so cancellation
// can be recognized via IsAppError/ErrorCode like every other kind.
func CancelledErr(cause error) *AppError {
	return Wrap(cause, ErrCodeCancelled, "operation cancelled")
}

// IsRetryable reports whether C10's retry policy (§7: up to 2x with
// 1s/4s backoff) applies to this error.
func IsRetryable(err error) bool {
	app := GetAppError(err)
	return app != nil && app.Code == ErrCodeDataSourceUnavailable
}
