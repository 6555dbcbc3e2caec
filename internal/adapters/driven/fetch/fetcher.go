// Package fetch retrieves rendered documents over HTTP for the content
// indexer. Each request is bounded by the client timeout and paced by a
// shared rate limiter.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// maxBodyBytes caps how much of a page is read. Larger pages fail rather
// than being indexed from a truncated body.
const maxBodyBytes = 16 << 20

// Fetcher implements driven.Fetcher with net/http.
type Fetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	userAgent string
	maxBody   int64
}

var _ driven.Fetcher = (*Fetcher)(nil)

// New creates a fetcher from the fetch settings.
func New(cfg domain.FetchSettings) *Fetcher {
	return NewWithClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// NewWithClient creates a fetcher using client for transport. The client's
// own timeout is left untouched.
func NewWithClient(client *http.Client, cfg domain.FetchSettings) *Fetcher {
	return &Fetcher{
		client:    client,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
		userAgent: cfg.UserAgent,
		maxBody:   maxBodyBytes,
	}
}

// Fetch performs a GET request and returns the body. Transport failures,
// non-2xx statuses and bodies over the size cap wrap domain.ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("fetch %s: status %d", url, resp.StatusCode)
		return "", fmt.Errorf("%w: HTTP %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", domain.ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxBody {
		logger.Warn("fetch %s: body exceeds %d bytes", url, f.maxBody)
		return "", fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFetchFailed, f.maxBody)
	}
	return string(body), nil
}

// retryAfter parses the delay-seconds form of a Retry-After header.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
