package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/use-agent/wishscrape/config"
)

// Fetcher retrieves product pages over plain HTTP.
//
// Each attempt is bounded by cfg.Timeout. Failed attempts are retried up to
// cfg.MaxAttempts tries in total, cfg.RetryDelay apart. A Fetcher holds no
// per-request state and is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	cfg    config.FetcherConfig
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client, e.g. with one using a fake transport.
// The per-attempt timeout is still enforced through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

// WithLogger sets the logger used for per-attempt warnings.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher. Zero or negative config values fall back
// to the defaults in config.DefaultFetcher.
func NewFetcher(cfg config.FetcherConfig, opts ...Option) *Fetcher {
	def := config.DefaultFetcher()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	f := &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		sleep:  sleepContext,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the effective configuration after defaults were applied.
func (f *Fetcher) Config() config.FetcherConfig {
	return f.cfg
}

// Fetch validates targetURL and GETs it. On success the body is returned
// unmodified. On failure the error is a *FetchError describing the last
// attempt, or wraps ErrInvalidURL if no request was made.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	u, err := ValidateURL(targetURL)
	if err != nil {
		return nil, err
	}
	target := u.String()

	var lastErr *FetchError
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		result, ferr := f.fetchOnce(ctx, target)
		if ferr == nil {
			result.Attempts = attempt
			return result, nil
		}

		ferr.Attempts = attempt
		lastErr = ferr
		f.logger.Warn("fetch attempt failed",
			"url", target,
			"attempt", attempt,
			"max_attempts", f.cfg.MaxAttempts,
			"kind", ferr.Kind,
			"status", ferr.StatusCode,
			"error", ferr.Err,
		)

		if attempt == f.cfg.MaxAttempts {
			break
		}
		if err := f.sleep(ctx, f.cfg.RetryDelay); err != nil {
			// Caller gave up; no point in another attempt.
			break
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single GET bounded by the per-attempt timeout.
func (f *Fetcher) fetchOnce(ctx context.Context, target string) (*FetchResult, *FetchError) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Kind: FailureNetwork, Err: fmt.Errorf("httpfetch: build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Kind: classify(err), Err: fmt.Errorf("httpfetch: request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: target, Kind: FailureStatus, StatusCode: resp.StatusCode}
	}

	// One byte past the cap tells an oversized body apart from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: target, Kind: classify(err), Err: fmt.Errorf("httpfetch: read body: %w", err)}
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, &FetchError{URL: target, Kind: FailureNetwork, Err: fmt.Errorf("httpfetch: %w: more than %d bytes", ErrBodyTooLarge, f.cfg.MaxBodyBytes)}
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    finalURL,
	}, nil
}

// classify maps a transport error to a FailureKind.
func classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
