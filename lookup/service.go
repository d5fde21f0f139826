// Package lookup turns a product URL into a ProductRecord: it validates the
// URL, fetches the page, decodes it and runs the extractor.
package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/use-agent/wishscrape/cache"
	"github.com/use-agent/wishscrape/models"
	"github.com/use-agent/wishscrape/scraper"
)

// Fetcher retrieves a page. *scraper.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*scraper.FetchResult, error)
}

// ProductExtractor reads a product record out of HTML. *extractor.Extractor satisfies it.
type ProductExtractor interface {
	Extract(rawHTML string, pageURL *url.URL) models.ProductRecord
}

// Service is the product lookup entry point shared by the HTTP API, the
// MCP server and the CLI.
type Service struct {
	fetcher   Fetcher
	extractor ProductExtractor
	cache     *cache.Cache
	logger    *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithCache enables caching of successful lookups.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger. Fetch failures are logged under component=scraper.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires a Fetcher and an extractor together.
func NewService(f Fetcher, x ProductExtractor, opts ...Option) *Service {
	s := &Service{
		fetcher:   f,
		extractor: x,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheEntries reports the number of cached records, or 0 without a cache.
func (s *Service) CacheEntries() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// ScrapeProduct fetches rawURL and extracts a product record from it.
//
// A record with every field absent is a successful result. Errors are
// always *models.ScrapeError: INVALID_INPUT when rawURL is not an absolute
// http(s) URL (no request is made), FETCH_FAILED when the page could not be
// retrieved. The FETCH_FAILED message is generic; details go to the log.
func (s *Service) ScrapeProduct(ctx context.Context, rawURL string) (models.ProductRecord, error) {
	u, err := scraper.ValidateURL(rawURL)
	if err != nil {
		return models.ProductRecord{}, models.NewScrapeError(
			models.ErrCodeInvalidInput, "url must be an absolute http or https URL", err,
		)
	}
	target := u.String()

	key := cache.Key(target)
	if s.cache != nil {
		if rec, ok := s.cache.Get(key); ok {
			s.logger.Debug("lookup: cache hit", "url", target)
			return rec, nil
		}
	}

	res, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		s.logFetchFailure(target, err)
		return models.ProductRecord{}, models.NewScrapeError(
			models.ErrCodeFetchFailed, models.MsgFetchFailed, err,
		)
	}

	pageURL := u
	if res.FinalURL != "" {
		if final, perr := url.Parse(res.FinalURL); perr == nil {
			pageURL = final
		}
	}

	rec := s.extractor.Extract(decodeBody(res.HTML, res.ContentType), pageURL)

	s.logger.Info("lookup: product extracted",
		"url", target,
		"attempts", res.Attempts,
		"has_name", rec.Name != "",
		"has_price", rec.Price != nil,
		"has_image", rec.Image != "",
	)

	if s.cache != nil {
		s.cache.Set(key, rec)
	}
	return rec, nil
}

func (s *Service) logFetchFailure(target string, err error) {
	attrs := []any{"url", target, "error", err}

	var fe *scraper.FetchError
	if errors.As(err, &fe) {
		attrs = append(attrs,
			"kind", fe.Kind,
			"status", fe.StatusCode,
			"attempts", fe.Attempts,
		)
	}
	s.logger.With("component", "scraper").Error("product fetch failed", attrs...)
}

// decodeBody converts body to UTF-8 using the Content-Type header, a BOM or
// a <meta charset> declaration. Undecodable input is returned unchanged.
func decodeBody(body, contentType string) string {
	r, err := charset.NewReader(strings.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return string(out)
}
