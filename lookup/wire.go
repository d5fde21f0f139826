package lookup

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/wishscrape/cache"
	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/extractor"
	"github.com/use-agent/wishscrape/scraper"
)

// FromConfig builds a Service with a real Fetcher, an Extractor using the
// configured rules file (or the built-in rules) and, when cfg.Cache.TTL is
// positive, a cache. The returned cache is nil when caching is disabled.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Service, *cache.Cache, error) {
	rules := extractor.DefaultRules()
	if cfg.Extractor.RulesFile != "" {
		var err error
		rules, err = extractor.LoadRules(cfg.Extractor.RulesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("lookup: %w", err)
		}
		logger.Info("extractor rules loaded", "file", cfg.Extractor.RulesFile)
	}

	x, err := extractor.New(rules,
		extractor.WithDescriptionMaxLen(cfg.Extractor.DescriptionMaxLen),
		extractor.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup: %w", err)
	}

	f := scraper.NewFetcher(cfg.Fetcher, scraper.WithLogger(logger.With("component", "scraper")))

	opts := []Option{WithLogger(logger)}
	var cc *cache.Cache
	if cfg.Cache.TTL > 0 {
		cc = cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		opts = append(opts, WithCache(cc))
	}

	return NewService(f, x, opts...), cc, nil
}
