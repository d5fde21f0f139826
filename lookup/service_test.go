package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/wishscrape/cache"
	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/extractor"
	"github.com/use-agent/wishscrape/models"
	"github.com/use-agent/wishscrape/scraper"
)

const productPage = `<!DOCTYPE html>
<html><head>
<meta property="og:image" content="https://example.com/img.png">
<meta property="og:title" content="Wireless Mouse">
</head><body><span class="price">$24.99</span></body></html>`

type fakeFetcher struct {
	calls  atomic.Int32
	result *scraper.FetchResult
	err    error
}

func (f *fakeFetcher) Fetch(_ context.Context, targetURL string) (*scraper.FetchResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	if res.FinalURL == "" {
		res.FinalURL = targetURL
	}
	return &res, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRealFetcher returns a scraper.Fetcher that never actually waits between attempts.
func newRealFetcher() *scraper.Fetcher {
	return scraper.NewFetcher(config.DefaultFetcher(),
		scraper.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		scraper.WithLogger(quietLogger()),
	)
}

func asScrapeError(t *testing.T, err error) *models.ScrapeError {
	t.Helper()
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *models.ScrapeError", err)
	}
	return se
}

func TestScrapeProduct_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, productPage)
	}))
	defer srv.Close()

	svc := NewService(newRealFetcher(), extractor.Default(), WithLogger(quietLogger()))

	rec, err := svc.ScrapeProduct(context.Background(), srv.URL+"/item")
	if err != nil {
		t.Fatalf("ScrapeProduct: %v", err)
	}
	if rec.Name != "Wireless Mouse" || rec.Image != "https://example.com/img.png" || rec.Brand != "" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Price == nil || *rec.Price != 24.99 {
		t.Errorf("price = %v, want 24.99", rec.Price)
	}
	if rec.URL != srv.URL+"/item" {
		t.Errorf("url = %q", rec.URL)
	}
}

func TestScrapeProduct_InvalidURLMakesNoRequest(t *testing.T) {
	f := &fakeFetcher{result: &scraper.FetchResult{HTML: productPage}}
	svc := NewService(f, extractor.Default(), WithLogger(quietLogger()))

	for _, in := range []string{"", "not a url", "ftp://example.com/x", "/relative/path", "https://"} {
		_, err := svc.ScrapeProduct(context.Background(), in)
		se := asScrapeError(t, err)
		if se.Code != models.ErrCodeInvalidInput {
			t.Errorf("%q: code = %s, want %s", in, se.Code, models.ErrCodeInvalidInput)
		}
		if !errors.Is(err, scraper.ErrInvalidURL) {
			t.Errorf("%q: error does not wrap ErrInvalidURL", in)
		}
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("fetcher called %d times, want 0", n)
	}
}

func TestScrapeProduct_FetchFailureIsGenericAndLogged(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	svc := NewService(newRealFetcher(), extractor.Default(), WithLogger(logger))

	_, err := svc.ScrapeProduct(context.Background(), srv.URL+"/missing")
	se := asScrapeError(t, err)

	if se.Code != models.ErrCodeFetchFailed {
		t.Errorf("code = %s, want %s", se.Code, models.ErrCodeFetchFailed)
	}
	if se.Message != models.MsgFetchFailed {
		t.Errorf("message = %q", se.Message)
	}
	if !errors.Is(err, scraper.ErrFetchFailed) {
		t.Error("error does not match scraper.ErrFetchFailed")
	}
	detail := se.ToDetail()
	if strings.Contains(detail.Message, "404") || strings.Contains(detail.Message, "127.0.0.1") {
		t.Errorf("detail leaks fetch details: %q", detail.Message)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var m map[string]any
		if json.Unmarshal([]byte(line), &m) == nil && m["level"] == "ERROR" {
			entry = m
		}
	}
	if entry == nil {
		t.Fatalf("no error log entry in:\n%s", logs.String())
	}
	if entry["component"] != "scraper" || entry["kind"] != "status" || entry["status"] != float64(404) {
		t.Errorf("log entry = %v", entry)
	}
	if entry["url"] != srv.URL+"/missing" {
		t.Errorf("logged url = %v", entry["url"])
	}
}

func TestScrapeProduct_NonProductPageIsEmptySuccess(t *testing.T) {
	f := &fakeFetcher{result: &scraper.FetchResult{HTML: "<html><body><p>Nothing for sale.</p></body></html>"}}
	svc := NewService(f, extractor.Default(), WithLogger(quietLogger()))

	rec, err := svc.ScrapeProduct(context.Background(), "https://blog.example.com/post")
	if err != nil {
		t.Fatalf("ScrapeProduct: %v", err)
	}
	if !rec.IsEmpty() {
		t.Errorf("record = %+v, want empty", rec)
	}
}

func TestScrapeProduct_DecodesDeclaredCharset(t *testing.T) {
	f := &fakeFetcher{result: &scraper.FetchResult{
		HTML:        `<meta property="og:title" content="Caf` + "\xe9" + ` Cr` + "\xe8" + `me">`,
		ContentType: "text/html; charset=iso-8859-1",
	}}
	svc := NewService(f, extractor.Default(), WithLogger(quietLogger()))

	rec, err := svc.ScrapeProduct(context.Background(), "https://shop.example.com/p/1")
	if err != nil {
		t.Fatalf("ScrapeProduct: %v", err)
	}
	if rec.Name != "Café Crème" {
		t.Errorf("name = %q, want %q", rec.Name, "Café Crème")
	}
}

func TestScrapeProduct_ResolvesAgainstFinalURL(t *testing.T) {
	f := &fakeFetcher{result: &scraper.FetchResult{
		HTML:     `<meta property="og:title" content="Lamp"><meta property="og:image" content="/img/lamp.jpg">`,
		FinalURL: "https://www.example.com/products/lamp",
	}}
	svc := NewService(f, extractor.Default(), WithLogger(quietLogger()))

	rec, err := svc.ScrapeProduct(context.Background(), "https://example.com/lamp")
	if err != nil {
		t.Fatalf("ScrapeProduct: %v", err)
	}
	if rec.Image != "https://www.example.com/img/lamp.jpg" {
		t.Errorf("image = %q", rec.Image)
	}
}

func TestScrapeProduct_Cache(t *testing.T) {
	f := &fakeFetcher{result: &scraper.FetchResult{HTML: productPage}}
	c := cache.New(time.Minute, 10)
	svc := NewService(f, extractor.Default(), WithCache(c), WithLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		rec, err := svc.ScrapeProduct(context.Background(), "https://shop.example.com/p/1")
		if err != nil {
			t.Fatalf("ScrapeProduct: %v", err)
		}
		if rec.Name != "Wireless Mouse" {
			t.Errorf("name = %q", rec.Name)
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetcher called %d times, want 1", n)
	}
	if svc.CacheEntries() != 1 {
		t.Errorf("CacheEntries = %d, want 1", svc.CacheEntries())
	}
}

func TestScrapeProduct_FailuresAreNotCached(t *testing.T) {
	f := &fakeFetcher{err: &scraper.FetchError{URL: "https://shop.example.com/p/1", Kind: scraper.FailureTimeout, Attempts: 2}}
	c := cache.New(time.Minute, 10)
	svc := NewService(f, extractor.Default(), WithCache(c), WithLogger(quietLogger()))

	for i := 0; i < 2; i++ {
		if _, err := svc.ScrapeProduct(context.Background(), "https://shop.example.com/p/1"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("fetcher called %d times, want 2", n)
	}
	if c.Len() != 0 {
		t.Errorf("cache has %d entries", c.Len())
	}
}

var (
	_ Fetcher          = (*scraper.Fetcher)(nil)
	_ ProductExtractor = (*extractor.Extractor)(nil)
)
