package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/wishscrape/models"
)

// ProductScraper looks up a product page. *lookup.Service satisfies it.
type ProductScraper interface {
	ScrapeProduct(ctx context.Context, rawURL string) (models.ProductRecord, error)
}

// ScrapeProduct returns a handler for POST /api/v1/products/scrape.
//
// An empty product is a 200: the wishlist form is then simply not pre-filled.
func ScrapeProduct(svc ProductScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeProductResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "request body must be JSON with an absolute \"url\"",
				},
			})
			return
		}

		rec, err := svc.ScrapeProduct(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeProductResponse{
			Success: true,
			Product: &rec,
		})
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response. Anything else becomes a 500 without
// exposing the underlying message.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		_ = c.Error(err)
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, "internal error", err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeProductResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeFetchFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
