package httpserver

import (
	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/metadata-change-listener/internal/api/middleware"
	"github.com/PratikDhanave/metadata-change-listener/internal/config"
	"github.com/PratikDhanave/metadata-change-listener/internal/handlers"
)

// Store is everything the routes need from persistence.
type Store interface {
	handlers.EventWriter
	handlers.EventReader
	handlers.Pinger
}

// NewRouter wires the public endpoints.
// Probes: /health, /metrics
// Webhook: /webhook (bearer secret when configured)
// Read-back: /events
func NewRouter(cfg *config.Config, st Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.ErrorHandler())

	handlers.RegisterHealthRoutes(r, st)
	handlers.RegisterWebhookRoutes(r, st, cfg.Webhook.Secret)
	handlers.RegisterEventRoutes(r, st)

	return r
}
