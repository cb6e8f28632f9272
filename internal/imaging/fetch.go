package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"notsteam/internal/storage"
)

// HTTPFetcher fetches image bytes over HTTP, optionally writing them
// through to a local file cache so a URL is downloaded at most once.
type HTTPFetcher struct {
	client *http.Client
	cache  *storage.FileCache
}

// NewHTTPFetcher constructs a fetcher. cache may be nil, in which case
// fetched bytes are discarded after the transfer (the load still warms
// any intermediate HTTP caches).
func NewHTTPFetcher(timeout time.Duration, cache *storage.FileCache) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
	}
}

// Fetch downloads url. A cached URL returns immediately without a
// network round trip.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) error {
	if f.cache != nil && f.cache.Has(url) {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if f.cache != nil {
		return f.cache.Save(url, resp.Body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
