package scraper

// FetchResult is the outcome of a successful fetch.
type FetchResult struct {
	// HTML is the response body exactly as received.
	HTML string

	// ContentType is the response Content-Type header, used later for
	// charset detection.
	ContentType string

	// StatusCode is the final (2xx) HTTP status.
	StatusCode int

	// FinalURL is the URL after following redirects.
	FinalURL string

	// Attempts is how many tries it took, starting at 1.
	Attempts int
}
