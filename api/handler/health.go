package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/models"
)

// CacheStats reports cache occupancy. *lookup.Service satisfies it.
type CacheStats interface {
	CacheEntries() int
}

// Health returns a handler for GET /api/v1/health.
func Health(stats CacheStats, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			Version:      config.Version,
			CacheEntries: stats.CacheEntries(),
		})
	}
}
