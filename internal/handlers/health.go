package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealthRoutes registers the health probe and the Prometheus scrape endpoint.
func RegisterHealthRoutes(r gin.IRoutes, p Pinger) {
	// Health: confirms the DB dependency is reachable.
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
				"error":    err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
