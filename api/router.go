package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/wishscrape/api/handler"
	"github.com/use-agent/wishscrape/api/middleware"
	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/lookup"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring probes always work.
func NewRouter(svc *lookup.Service, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(svc, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/products/scrape", handler.ScrapeProduct(svc))

	return r
}
