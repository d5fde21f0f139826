package config

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Fetcher != DefaultFetcher() {
		t.Errorf("fetcher defaults = %+v, want %+v", cfg.Fetcher, DefaultFetcher())
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Extractor.DescriptionMaxLen != 500 {
		t.Errorf("description max = %d, want 500", cfg.Extractor.DescriptionMaxLen)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache ttl = %v, want 10m", cfg.Cache.TTL)
	}
	if !cfg.Auth.Enabled || len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("auth = %+v, want enabled with no keys", cfg.Auth)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WISHSCRAPE_FETCH_TIMEOUT", "750ms")
	t.Setenv("WISHSCRAPE_FETCH_ATTEMPTS", "4")
	t.Setenv("WISHSCRAPE_FETCH_RETRY_DELAY", "2s")
	t.Setenv("WISHSCRAPE_USER_AGENT", "GiftBot/2.0")
	t.Setenv("WISHSCRAPE_API_KEYS", " k1, ,k2 ")
	t.Setenv("WISHSCRAPE_CACHE_TTL", "0s")
	t.Setenv("WISHSCRAPE_RULES_FILE", "/etc/wishscrape/rules.yaml")

	cfg := Load()

	want := FetcherConfig{
		Timeout:      750 * time.Millisecond,
		MaxAttempts:  4,
		RetryDelay:   2 * time.Second,
		UserAgent:    "GiftBot/2.0",
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	if cfg.Fetcher != want {
		t.Errorf("fetcher = %+v, want %+v", cfg.Fetcher, want)
	}
	if !reflect.DeepEqual(cfg.Auth.APIKeys, []string{"k1", "k2"}) {
		t.Errorf("api keys = %q", cfg.Auth.APIKeys)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("cache ttl = %v, want 0", cfg.Cache.TTL)
	}
	if cfg.Extractor.RulesFile != "/etc/wishscrape/rules.yaml" {
		t.Errorf("rules file = %q", cfg.Extractor.RulesFile)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("WISHSCRAPE_FETCH_TIMEOUT", "soon")
	t.Setenv("WISHSCRAPE_FETCH_ATTEMPTS", "two")
	t.Setenv("WISHSCRAPE_AUTH_ENABLED", "maybe")

	cfg := Load()

	if cfg.Fetcher.Timeout != DefaultFetchTimeout {
		t.Errorf("timeout = %v, want default", cfg.Fetcher.Timeout)
	}
	if cfg.Fetcher.MaxAttempts != DefaultFetchAttempts {
		t.Errorf("attempts = %d, want default", cfg.Fetcher.MaxAttempts)
	}
	if !cfg.Auth.Enabled {
		t.Error("auth should keep its default when the value is unparsable")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		cfg      LogConfig
		wantJSON bool
		debugOn  bool
	}{
		{LogConfig{Level: "info", Format: "json"}, true, false},
		{LogConfig{Level: "debug", Format: "text"}, false, true},
		{LogConfig{Level: "bogus", Format: ""}, true, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewLogger(tt.cfg, &buf)

		if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debugOn {
			t.Errorf("%+v: debug enabled = %v, want %v", tt.cfg, got, tt.debugOn)
		}
		logger.Info("hello", "k", "v")
		if isJSON := strings.HasPrefix(buf.String(), "{"); isJSON != tt.wantJSON {
			t.Errorf("%+v: output %q, want json=%v", tt.cfg, buf.String(), tt.wantJSON)
		}
	}
}
