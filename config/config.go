package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetcher   FetcherConfig
	Extractor ExtractorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetcherConfig controls the outbound product page request.
type FetcherConfig struct {
	// Timeout bounds each attempt, not the whole retry sequence.
	Timeout time.Duration // default: 3s

	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int // default: 2

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration // default: 1s

	// UserAgent identifies this client to the target site.
	UserAgent string // default: "MyWishlistApp lookup"

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MB
}

// ExtractorConfig controls product field extraction.
type ExtractorConfig struct {
	// RulesFile is an optional YAML file replacing the built-in selector rules.
	RulesFile string

	// DescriptionMaxLen truncates extracted descriptions (in characters).
	DescriptionMaxLen int // default: 500
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the product record cache.
type CacheConfig struct {
	// TTL is how long a scraped record is served from cache. Zero disables caching.
	TTL time.Duration // default: 10m

	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Version is reported by the health endpoint and the MCP server.
const Version = "0.1.0"

// Default fetcher values. They mirror the behaviour the wishlist
// application has always had: two tries, three seconds each, one second apart.
const (
	DefaultFetchTimeout    = 3 * time.Second
	DefaultFetchAttempts   = 2
	DefaultFetchRetryDelay = 1 * time.Second
	DefaultUserAgent       = "MyWishlistApp lookup"
	DefaultMaxBodyBytes    = 10 << 20
)

// DefaultFetcher returns the fetcher configuration used when nothing is overridden.
func DefaultFetcher() FetcherConfig {
	return FetcherConfig{
		Timeout:      DefaultFetchTimeout,
		MaxAttempts:  DefaultFetchAttempts,
		RetryDelay:   DefaultFetchRetryDelay,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("WISHSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("WISHSCRAPE_PORT", 8080),
			Mode: envOr("WISHSCRAPE_MODE", "release"),
		},
		Fetcher: FetcherConfig{
			Timeout:      envDurationOr("WISHSCRAPE_FETCH_TIMEOUT", DefaultFetchTimeout),
			MaxAttempts:  envIntOr("WISHSCRAPE_FETCH_ATTEMPTS", DefaultFetchAttempts),
			RetryDelay:   envDurationOr("WISHSCRAPE_FETCH_RETRY_DELAY", DefaultFetchRetryDelay),
			UserAgent:    envOr("WISHSCRAPE_USER_AGENT", DefaultUserAgent),
			MaxBodyBytes: envInt64Or("WISHSCRAPE_MAX_BODY_BYTES", DefaultMaxBodyBytes),
		},
		Extractor: ExtractorConfig{
			RulesFile:         os.Getenv("WISHSCRAPE_RULES_FILE"),
			DescriptionMaxLen: envIntOr("WISHSCRAPE_DESCRIPTION_MAX", 500),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("WISHSCRAPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("WISHSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("WISHSCRAPE_RATE_RPS", 5.0),
			Burst:             envIntOr("WISHSCRAPE_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("WISHSCRAPE_CACHE_TTL", 10*time.Minute),
			MaxEntries: envIntOr("WISHSCRAPE_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("WISHSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("WISHSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
