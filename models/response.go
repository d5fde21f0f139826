package models

// ScrapeProductResponse is the response for POST /api/v1/products/scrape.
type ScrapeProductResponse struct {
	// Success indicates whether the lookup completed without errors.
	// A product with no extracted fields is still a success.
	Success bool `json:"success"`

	// Product is populated only when Success is true.
	Product *ProductRecord `json:"product,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	Version      string `json:"version"`
	CacheEntries int    `json:"cache_entries"`
}
