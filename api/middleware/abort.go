package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/wishscrape/models"
)

// abortWithError stops the chain with the same envelope the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ScrapeProductResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
