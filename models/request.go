package models

// ScrapeProductRequest is the payload for POST /api/v1/products/scrape.
type ScrapeProductRequest struct {
	// URL is the product page to look up. Required; must be an absolute
	// http(s) URL.
	URL string `json:"url" binding:"required,url"`
}
