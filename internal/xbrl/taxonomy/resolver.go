// Package taxonomy implements the taxonomy resolver (C6): an on-disk
// cache of remote MOPS-hosted schema/linkbase files, fetched once per URL
// via a single-flight guarantee, grounded on the teacher's request
// coalescing pattern generalized from a sector-lookup cache
// (drewjst-recon's sector service) to an arbitrary-URL keyed cache.
package taxonomy

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"data-collection-system/internal/fetch"
	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/logger"
)

// Resolver maintains the local cache directory and the per-URL
// single-flight group described in §4.6.
type Resolver struct {
	cacheDir string
	fetcher  *fetch.Fetcher
	group    singleflight.Group
}

func New(cacheDir string, fetcher *fetch.Fetcher) *Resolver {
	return &Resolver{cacheDir: cacheDir, fetcher: fetcher}
}

// Resolve rewrites an xsi:schemaLocation reference to its local cached
// path, fetching it through C2 exactly once per distinct remote URL if
// not already cached. On failure it returns a best-effort (possibly
// empty) byte slice plus a downgraded TaxonomyResolutionError warning —
// per §4.6, failure to resolve never aborts parsing.
func (r *Resolver) Resolve(ctx context.Context, remoteURL string) ([]byte, error) {
	localPath := r.localPath(remoteURL)

	if data, err := os.ReadFile(localPath); err == nil {
		return data, nil
	}

	v, err, _ := r.group.Do(remoteURL, func() (interface{}, error) {
		res, err := r.fetcher.Get(ctx, remoteURL, "GET", nil, nil, fetch.EncodingUTF8)
		if err != nil {
			return nil, err
		}
		if mkErr := os.MkdirAll(filepath.Dir(localPath), 0o755); mkErr == nil {
			_ = os.WriteFile(localPath, res.Body, 0o644)
		}
		return res.Body, nil
	})
	if err != nil {
		logger.WithField("url", remoteURL).Warnf("taxonomy resolution failed, continuing best-effort: %v", err)
		return nil, errors.TaxonomyResolutionError(err, remoteURL)
	}
	return v.([]byte), nil
}

// localPath maps a remote taxonomy URL to a stable on-disk location
// mirroring its URL path under the cache directory, the same
// string-keying idea the teacher uses for its Redis cache keys, just
// rooted at a filesystem path instead of a key namespace.
func (r *Resolver) localPath(remoteURL string) string {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return filepath.Join(r.cacheDir, "_unparsed", sanitizeFilename(remoteURL))
	}
	return filepath.Join(r.cacheDir, u.Host, sanitizeFilename(u.Path))
}

func sanitizeFilename(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "index"
	}
	return p
}
