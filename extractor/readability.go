package extractor

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minExcerptLength is the shortest readability excerpt accepted as a
// description. Anything shorter is usually a button label or a breadcrumb.
const minExcerptLength = 40

// readabilityExcerpt runs the Mozilla Readability algorithm on rawHTML and
// returns its excerpt (the page's lead paragraph). It never fails: any
// problem yields "".
func readabilityExcerpt(logger *slog.Logger, rawHTML string, pageURL *nurl.URL) string {
	if pageURL == nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		logger.Debug("readability: extraction failed",
			"url", pageURL.String(), "error", err,
		)
		return ""
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if len(excerpt) < minExcerptLength {
		return ""
	}
	return excerpt
}
